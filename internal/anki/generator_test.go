package anki

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"codeberg.org/snonux/flashcards/internal/api"
	"codeberg.org/snonux/flashcards/internal/card"
	"codeberg.org/snonux/flashcards/internal/testutil"
)

func testCards() []card.Card {
	return []card.Card{
		{
			ID: "card-1",
			Fields: card.Fields{
				Front:     "公園に行きましょう。",
				Back:      "Let's go to the park.",
				MainWords: []string{"公園", "行きましょう:行く"},
				Notes:     "invitation, casual",
				Tags:      []string{"jlpt5", "daily life"},
			},
			Files: []string{"test/card-1-0.mp3", "test/card-1-1.mp3"},
		},
		{
			ID:     "card-2",
			Fields: card.Fields{Front: "猫", Back: "cat"},
		},
	}
}

type failingDownloader struct{}

func (failingDownloader) DownloadAudio(ctx context.Context, file string, w io.Writer) error {
	return errors.New("backend down")
}

func TestDefaultGeneratorOptions(t *testing.T) {
	opts := DefaultGeneratorOptions()

	if opts.OutputPath != "anki_import.csv" {
		t.Errorf("Expected output path 'anki_import.csv', got '%s'", opts.OutputPath)
	}

	if !opts.IncludeHeaders {
		t.Error("Expected IncludeHeaders to be true")
	}
}

func TestNewGenerator(t *testing.T) {
	// Test with nil options
	gen := NewGenerator(nil)
	if gen == nil {
		t.Fatal("NewGenerator returned nil")
	}
	if gen.options == nil {
		t.Error("Generator options should not be nil")
	}

	// Test with custom options
	gen = NewGenerator(&GeneratorOptions{OutputPath: "custom.csv"})
	if gen.options.OutputPath != "custom.csv" {
		t.Errorf("Expected custom output path, got '%s'", gen.options.OutputPath)
	}
}

func TestAddCard_SkipsMessageCards(t *testing.T) {
	gen := NewGenerator(nil)
	gen.AddCards(testCards())
	gen.AddCard(card.ErrorCard(errors.New("boom")))
	gen.AddCard(card.MessageCard("No cards", ""))

	if got := len(gen.GetCards()); got != 2 {
		t.Errorf("Expected 2 cards, got %d", got)
	}
}

func TestWriteCSV(t *testing.T) {
	gen := NewGenerator(nil)
	gen.AddCards(testCards())

	var buf bytes.Buffer
	if err := gen.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV back: %v", err)
	}

	want := [][]string{
		{"Front", "Back", "MainWords", "Audio", "Notes", "Tags"},
		{"公園に行きましょう。", "Let's go to the park.", "公園 行きましょう:行く", "[sound:test_card-1-0.mp3][sound:test_card-1-1.mp3]", "invitation, casual", "jlpt5 daily_life"},
		{"猫", "cat", "", "", "", ""},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("CSV records = %q, want %q", records, want)
	}
}

func TestWriteCSV_NoHeaders(t *testing.T) {
	gen := NewGenerator(&GeneratorOptions{IncludeHeaders: false})
	gen.AddCards(testCards()[1:])

	var buf bytes.Buffer
	if err := gen.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.String() != "猫,cat,,,,\n" {
		t.Errorf("CSV = %q", buf.String())
	}
}

func TestGenerateCSV(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "export.csv")
	gen := NewGenerator(&GeneratorOptions{OutputPath: outputPath, IncludeHeaders: true})
	gen.AddCards(testCards())

	if err := gen.GenerateCSV(); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	testutil.AssertFileContains(t, outputPath, "[sound:test_card-1-0.mp3]")
}

func TestGenerateCSV_BadPath(t *testing.T) {
	gen := NewGenerator(&GeneratorOptions{OutputPath: filepath.Join(t.TempDir(), "missing", "export.csv")})
	if err := gen.GenerateCSV(); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestGeneratePackage(t *testing.T) {
	backend := testutil.NewFakeBackend(t, "token")
	client, err := api.NewClient(&api.Config{BaseURL: backend.URL(), Token: "token"}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	outputDir := t.TempDir()
	gen := NewGenerator(nil)
	gen.AddCards(testCards())

	if err := gen.GeneratePackage(context.Background(), outputDir, client); err != nil {
		t.Fatalf("GeneratePackage failed: %v", err)
	}

	for _, file := range testCards()[0].Files {
		mediaFile := filepath.Join(outputDir, "collection.media", mediaName(file))
		data, err := os.ReadFile(mediaFile)
		if err != nil {
			t.Fatalf("Expected media file %s: %v", mediaFile, err)
		}
		if !bytes.Equal(data, testutil.FakeAudio(file)) {
			t.Errorf("Unexpected content in %s: %q", mediaFile, data)
		}
	}
	testutil.AssertFileExists(t, filepath.Join(outputDir, "import.csv"))

	// Existing media is not downloaded again
	requests := len(backend.Requests())
	if err := gen.GeneratePackage(context.Background(), outputDir, client); err != nil {
		t.Fatalf("second GeneratePackage failed: %v", err)
	}
	if got := len(backend.Requests()); got != requests {
		t.Errorf("Expected no new downloads, got %d new requests", got-requests)
	}
}

func TestGeneratePackage_DownloadError(t *testing.T) {
	outputDir := t.TempDir()
	gen := NewGenerator(nil)
	gen.AddCards(testCards())

	if err := gen.GeneratePackage(context.Background(), outputDir, failingDownloader{}); err == nil {
		t.Fatal("Expected download error")
	}

	entries, err := os.ReadDir(filepath.Join(outputDir, "collection.media"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no partial downloads, got %d files", len(entries))
	}
}

func TestStats(t *testing.T) {
	gen := NewGenerator(nil)
	gen.AddCards(testCards())

	total, withAudio := gen.Stats()
	if total != 2 || withAudio != 1 {
		t.Errorf("Stats() = %d, %d, want 2, 1", total, withAudio)
	}
}

func TestFormatTags(t *testing.T) {
	tests := []struct {
		tags []string
		want string
	}{
		{nil, ""},
		{[]string{"jlpt5"}, "jlpt5"},
		{[]string{"daily life", " ", "food"}, "daily_life food"},
	}

	for _, tt := range tests {
		if got := formatTags(tt.tags); got != tt.want {
			t.Errorf("formatTags(%q) = %q, want %q", tt.tags, got, tt.want)
		}
	}
}

func TestMediaName(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"card-1-0.mp3", "card-1-0.mp3"},
		{"alice/card-1-0.mp3", "alice_card-1-0.mp3"},
		{"/bob/card-1-0.mp3", "bob_card-1-0.mp3"},
	}

	for _, tt := range tests {
		if got := mediaName(tt.file); got != tt.want {
			t.Errorf("mediaName(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestGeneratePackage_SameBaseName(t *testing.T) {
	backend := testutil.NewFakeBackend(t, "token")
	client, err := api.NewClient(&api.Config{BaseURL: backend.URL(), Token: "token"}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	outputDir := t.TempDir()
	gen := NewGenerator(nil)
	gen.AddCards([]card.Card{
		{ID: "card-1", Fields: card.Fields{Front: "猫"}, Files: []string{"test/alice/0.mp3"}},
		{ID: "card-2", Fields: card.Fields{Front: "犬"}, Files: []string{"test/bob/0.mp3"}},
	})

	if err := gen.GeneratePackage(context.Background(), outputDir, client); err != nil {
		t.Fatalf("GeneratePackage failed: %v", err)
	}

	for _, file := range []string{"test/alice/0.mp3", "test/bob/0.mp3"} {
		data, err := os.ReadFile(filepath.Join(outputDir, "collection.media", mediaName(file)))
		if err != nil {
			t.Fatalf("Expected media file for %s: %v", file, err)
		}
		if !bytes.Equal(data, testutil.FakeAudio(file)) {
			t.Errorf("Unexpected content for %s: %q", file, data)
		}
	}
	testutil.AssertFileContains(t, filepath.Join(outputDir, "import.csv"), "[sound:test_bob_0.mp3]")
}
