package anki

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/flashcards/internal/card"
)

// MediaDownloader fetches an audio file served by the backend
type MediaDownloader interface {
	DownloadAudio(ctx context.Context, file string, w io.Writer) error
}

// GeneratorOptions configures the Anki export
type GeneratorOptions struct {
	OutputPath     string // Output CSV file path
	IncludeHeaders bool   // Include CSV headers
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "anki_import.csv",
		IncludeHeaders: true,
	}
}

// Generator creates Anki-compatible import files
type Generator struct {
	options *GeneratorOptions
	cards   []card.Card
}

// NewGenerator creates a new Anki generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]card.Card, 0),
	}
}

// AddCard adds a card to the export. Message cards are skipped.
func (g *Generator) AddCard(c card.Card) {
	if c.IsSynthetic() {
		return
	}
	g.cards = append(g.cards, c)
}

// AddCards adds several cards in order
func (g *Generator) AddCards(cards []card.Card) {
	for _, c := range cards {
		g.AddCard(c)
	}
}

// GetCards returns the cards to export
func (g *Generator) GetCards() []card.Card {
	return g.cards
}

// GenerateCSV creates the CSV file at the configured output path
func (g *Generator) GenerateCSV() error {
	// Create output file
	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := g.WriteCSV(file); err != nil {
		return err
	}
	return file.Close()
}

// WriteCSV writes the cards as Anki CSV to w
func (g *Generator) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	// Write headers if requested
	if g.options.IncludeHeaders {
		headers := []string{"Front", "Back", "MainWords", "Audio", "Notes", "Tags"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	// Write cards
	for _, c := range g.cards {
		record := []string{
			c.Front,
			c.Back,
			strings.Join(c.MainWords, " "),
			formatAudioField(c.Files),
			c.Notes,
			formatTags(c.Tags),
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card %s: %w", c.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// GeneratePackage downloads the audio of all cards into
// outputDir/collection.media and writes outputDir/import.csv
func (g *Generator) GeneratePackage(ctx context.Context, outputDir string, downloader MediaDownloader) error {
	mediaDir := filepath.Join(outputDir, "collection.media")
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	for _, c := range g.cards {
		for _, file := range c.Files {
			if file == "" {
				continue
			}
			if err := downloadMedia(ctx, downloader, file, mediaDir); err != nil {
				return fmt.Errorf("failed to download audio of card %s: %w", c.ID, err)
			}
		}
	}

	// Update output path to package directory
	g.options.OutputPath = filepath.Join(outputDir, "import.csv")

	return g.GenerateCSV()
}

// Stats returns statistics about the card collection
func (g *Generator) Stats() (totalCards, withAudio int) {
	totalCards = len(g.cards)

	for _, c := range g.cards {
		if len(c.Files) > 0 {
			withAudio++
		}
	}

	return
}

// formatAudioField formats the audio file references for Anki
func formatAudioField(files []string) string {
	var fields []string
	for _, file := range files {
		if file == "" {
			continue
		}
		// Anki audio format: [sound:filename.mp3]
		fields = append(fields, fmt.Sprintf("[sound:%s]", mediaName(file)))
	}
	return strings.Join(fields, "")
}

// formatTags joins tags the way Anki expects, spaces separate tags
func formatTags(tags []string) string {
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			result = append(result, strings.ReplaceAll(tag, " ", "_"))
		}
	}
	return strings.Join(result, " ")
}

// mediaName is the name of an audio file inside collection.media. Backend
// file references use "/" regardless of the platform. The directories are
// kept in the name as files of different users may share a base name.
func mediaName(file string) string {
	return strings.ReplaceAll(strings.TrimLeft(file, "/"), "/", "_")
}

func downloadMedia(ctx context.Context, downloader MediaDownloader, file, mediaDir string) error {
	destPath := filepath.Join(mediaDir, mediaName(file))
	if _, err := os.Stat(destPath); err == nil {
		// Audio files are immutable once generated
		return nil
	}

	tmp, err := os.CreateTemp(mediaDir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := downloader.DownloadAudio(ctx, file, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}
