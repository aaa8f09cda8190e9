package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal/anki"
	"codeberg.org/snonux/flashcards/internal/batch"
	"codeberg.org/snonux/flashcards/internal/card"
)

// ImportSummary counts the outcome of an import
type ImportSummary struct {
	Total    int
	Created  int
	Assisted int
	Failed   int
}

// Import creates a card for every entry of an import file. With useAssist,
// missing translations and main words are filled in by the LLM first. A
// failing entry is reported and skipped.
func (p *Processor) Import(filename string, useAssist bool) (ImportSummary, error) {
	var summary ImportSummary

	entries, err := batch.ReadImportFile(filename)
	if err != nil {
		return summary, err
	}
	if useAssist {
		if err := p.AssistAvailable(); err != nil {
			return summary, err
		}
	}
	if _, err := p.LoadCards(false); err != nil {
		return summary, err
	}

	summary.Total = len(entries)
	for i, entry := range entries {
		fmt.Fprintf(p.out, "\nImporting %d/%d: %s\n", i+1, len(entries), entry.Fields.Front)
		if entry.Err != nil {
			fmt.Fprintf(p.errOut, "Error importing line %d '%s': %v\n", entry.Line, entry.Fields.Front, entry.Err)
			summary.Failed++
			continue
		}

		fields := entry.Fields
		if useAssist && entry.NeedsAssist() {
			fmt.Fprintf(p.out, "  Asking %s for translation and main words...\n", p.assist.Provider().Name())
			if filled, err := p.FillIn(fields); err != nil {
				fmt.Fprintf(p.out, "  Warning: Assist failed: %v\n", err)
			} else {
				fields = filled
				summary.Assisted++
			}
		}

		saved, err := p.SaveCard("", fields)
		if err != nil {
			fmt.Fprintf(p.errOut, "Error importing line %d '%s': %v\n", entry.Line, entry.Fields.Front, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(p.out, "  Created card %s\n", saved.ID)
		summary.Created++
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Import Summary ===\n")
	fmt.Fprintf(p.out, "Total cards: %d\n", summary.Total)
	fmt.Fprintf(p.out, "Created: %d\n", summary.Created)
	if useAssist {
		fmt.Fprintf(p.out, "Assisted: %d\n", summary.Assisted)
	}
	if summary.Failed > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", summary.Failed)
	}
	fmt.Fprintf(p.out, "======================\n")

	completed, failed := p.JobStats()
	p.logger.Info("Import finished",
		zap.Int("created", summary.Created),
		zap.Int("failed", summary.Failed),
		zap.Int("jobs_completed", completed),
		zap.Int("jobs_failed", failed))

	return summary, nil
}

// FillIn asks the LLM for the translation and main words that fields lacks
func (p *Processor) FillIn(fields card.Fields) (card.Fields, error) {
	analysis, err := p.Analyze(fields.Front)
	if err != nil {
		return fields, err
	}
	if fields.Back == "" {
		fields.Back = analysis.Translation
	}
	if len(fields.MainWords) == 0 {
		fields.MainWords = analysis.MainWords
	}
	return fields, nil
}

// Export writes the collection as Anki import file. Without audio the CSV is
// written to path; with audio path is a directory receiving import.csv and
// the downloaded audio files. It returns the number of exported cards.
func (p *Processor) Export(path string, withAudio bool) (int, error) {
	cards, err := p.LoadCards(false)
	if err != nil {
		return 0, err
	}

	gen := anki.NewGenerator(&anki.GeneratorOptions{
		OutputPath:     path,
		IncludeHeaders: true,
	})
	gen.AddCards(cards)

	err = p.run("export "+path,
		func(ctx context.Context) error {
			if withAudio {
				return gen.GeneratePackage(ctx, path, p.api)
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			return gen.GenerateCSV()
		}, nil)
	if err != nil {
		return 0, err
	}

	total, audioCount := gen.Stats()
	fmt.Fprintf(p.out, "Exported %d cards (%d with audio)\n", total, audioCount)
	return total, nil
}

// ListModels prints the chat models usable for assist
func (p *Processor) ListModels() error {
	if p.lister == nil {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .flashcards.yaml")
	}
	return p.run("list models",
		func(ctx context.Context) error {
			return p.lister.ListAvailableModels(ctx, p.out, p.assistModel)
		}, nil)
}
