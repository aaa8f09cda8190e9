package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/flashcards/internal"
	"codeberg.org/snonux/flashcards/internal/card"
)

const (
	commentPrefix   = "#"
	backSeparator   = "="
	wordsSeparator  = "|"
	maxLineCapacity = 1024 * 1024
)

// Entry is one card read from an import file
type Entry struct {
	Line   int // 1-based line number in the file
	Fields card.Fields
	Err    error // Set when the line is malformed, Fields holds what was read
}

// NeedsAssist reports whether the translation or the main words are missing
func (e Entry) NeedsAssist() bool {
	return e.Fields.Back == "" || len(e.Fields.MainWords) == 0
}

// ReadImportFile reads the cards listed in filename
func ReadImportFile(filename string) ([]Entry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	defer file.Close()

	entries, err := ParseImport(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file %s: %w", filename, err)
	}
	return entries, nil
}

// ParseImport parses import lines from r. A malformed line, e.g. one with an
// empty front, becomes an entry with Err set so the other lines still count.
func ParseImport(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineCapacity)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := internal.CleanString(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		fields, err := parseLine(line)
		entries = append(entries, Entry{Line: lineNo, Fields: fields, Err: err})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// parseLine parses "front [= back] [| main words]"
func parseLine(line string) (card.Fields, error) {
	var fields card.Fields

	rest, words, hasWords := strings.Cut(line, wordsSeparator)
	front, back, _ := strings.Cut(rest, backSeparator)

	fields.Front = front
	fields.Back = back
	if hasWords {
		fields.MainWords = internal.SplitWords(words)
	}

	fields = fields.Clean()
	return fields, card.Validate(fields)
}
