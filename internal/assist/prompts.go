package assist

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/flashcards/internal"
)

// DirectivePrefix starts a note that carries a free-form instruction for Alter
const DirectivePrefix = "gpt:"

// Analysis is the answer to AnalyzePrompt
type Analysis struct {
	Translation string   `json:"translation"`
	MainWords   []string `json:"words"`
}

// Alteration is the answer to AlterPrompt
type Alteration struct {
	Phrase string `json:"phrase"`
}

// AnalyzePrompt asks for the translation and the main words of sentence
func AnalyzePrompt(sentence string) string {
	return "From a Japanese sentence, I want the English translation and the main words in Japanese.\n" +
		"The answer must be in JSON format, with fields \"translation\" and \"words\".\n" +
		"For the 'words', only include the most important words of the sentence, " +
		"do not include particles, markers, or words that appear frequently in Japanese sentences.\n" +
		"Here's the Japanese sentence: " + sentence
}

// AlterPrompt asks for a variant of sentence. When notes starts with
// DirectivePrefix the rest of notes is sent as the instruction instead.
func AlterPrompt(sentence, notes string) string {
	format := "The answer must be in JSON format, with a single field \"phrase\"."

	if instruction, ok := Directive(notes); ok {
		return fmt.Sprintf("%s\n%s\nHere's the Japanese sentence: %s", instruction, format, sentence)
	}

	return "From a Japanese sentence, I want a different Japanese sentence of similar difficulty " +
		"that keeps most of its main words, for example by changing the subject, the tense or the politeness.\n" +
		format + "\n" +
		"Here's the Japanese sentence: " + sentence
}

// Directive returns the instruction carried by notes, if any
func Directive(notes string) (string, bool) {
	notes = internal.CleanString(notes)
	if !strings.HasPrefix(notes, DirectivePrefix) {
		return "", false
	}

	instruction := internal.CleanString(strings.TrimPrefix(notes, DirectivePrefix))
	if instruction == "" {
		return "", false
	}
	return instruction, true
}

// Analyze asks for the translation and main words of sentence
func (c *Client) Analyze(ctx context.Context, sentence string) (Analysis, error) {
	sentence = internal.CleanString(sentence)
	if sentence == "" {
		return Analysis{}, fmt.Errorf("sentence is empty")
	}

	analysis, err := SendPromptTyped[Analysis](ctx, c, AnalyzePrompt(sentence), nil)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to analyze sentence: %w", err)
	}
	analysis.Translation = internal.CleanString(analysis.Translation)
	return analysis, nil
}

// Alter asks for a variant of sentence, following a directive in notes
func (c *Client) Alter(ctx context.Context, sentence, notes string) (Alteration, error) {
	sentence = internal.CleanString(sentence)
	if sentence == "" {
		return Alteration{}, fmt.Errorf("sentence is empty")
	}

	alteration, err := SendPromptTyped[Alteration](ctx, c, AlterPrompt(sentence, notes), nil)
	if err != nil {
		return Alteration{}, fmt.Errorf("failed to alter sentence: %w", err)
	}
	alteration.Phrase = internal.CleanString(alteration.Phrase)
	return alteration, nil
}
