package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/flashcards/internal"
	"codeberg.org/snonux/flashcards/internal/card"
	"codeberg.org/snonux/flashcards/internal/cli"
	"codeberg.org/snonux/flashcards/internal/processor"
)

// cardFlags holds the card content given on the command line
type cardFlags struct {
	front  string
	back   string
	words  string
	notes  string
	tags   string
	assist bool
}

func (f *cardFlags) register(cmd *cobra.Command, withFront bool) {
	fl := cmd.Flags()
	if withFront {
		fl.StringVar(&f.front, "front", "", "Japanese sentence")
	}
	fl.StringVar(&f.back, "back", "", "Translation")
	fl.StringVar(&f.words, "words", "", "Main words separated by spaces, each word or word:link")
	fl.StringVar(&f.notes, "notes", "", "Notes")
	fl.StringVar(&f.tags, "tags", "", "Tags separated by spaces")
	fl.BoolVar(&f.assist, "assist", false, "Fill in missing translation and main words with the LLM")
}

// apply sets the fields whose flag was given
func (f *cardFlags) apply(cmd *cobra.Command, fields card.Fields) card.Fields {
	changed := cmd.Flags().Changed
	if changed("front") {
		fields.Front = f.front
	}
	if changed("back") {
		fields.Back = f.back
	}
	if changed("words") {
		fields.MainWords = internal.SplitWords(f.words)
	}
	if changed("notes") {
		fields.Notes = f.notes
	}
	if changed("tags") {
		fields.Tags = internal.SplitWords(f.tags)
	}
	return fields
}

// withProcessor runs fn with a processor configured from flags
func withProcessor(flags *cli.Flags, fn func(p *processor.Processor) error) error {
	logger, err := cli.NewLogger(flags.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	p, err := processor.NewProcessor(flags, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(p)
}

func addCommands(root *cobra.Command, flags *cli.Flags) {
	root.AddCommand(
		newListCommand(flags),
		newSearchCommand(flags),
		newShowCommand(flags),
		newCreateCommand(flags),
		newEditCommand(flags),
		newDeleteCommand(flags),
		newSayCommand(flags),
		newPlayCommand(flags),
		newRegenAudioCommand(flags),
		newAssistCommand(flags),
		newAlterCommand(flags),
		newImportCommand(flags),
		newExportCommand(flags),
		newModelsCommand(flags),
	)
}

func newListCommand(flags *cli.Flags) *cobra.Command {
	var force, shuffle bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all cards, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				return listCards(cmd.OutOrStdout(), p, force, shuffle)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reload even when the cards are loaded")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "List the cards in random order")
	return cmd
}

func listCards(w io.Writer, p *processor.Processor, force, shuffle bool) error {
	cards, err := p.LoadCards(force)
	if err != nil {
		// A failed load still leaves the error card to show
		if len(cards) > 0 {
			printCardList(w, cards)
		}
		return err
	}
	if shuffle {
		if cards, err = p.Shuffle(); err != nil {
			return err
		}
	}
	printCardList(w, cards)
	return nil
}

func newSearchCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "List the cards containing QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				cards, err := p.Search(args[0])
				if err != nil {
					return err
				}
				printCardList(cmd.OutOrStdout(), cards)
				return nil
			})
		},
	}
}

func newShowCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a card with its main words linked to the dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				c, lines, err := p.Show(args[0])
				if err != nil {
					return err
				}
				printCard(cmd.OutOrStdout(), c, lines)
				return nil
			})
		},
	}
}

func newCreateCommand(flags *cli.Flags) *cobra.Command {
	var cf cardFlags

	cmd := &cobra.Command{
		Use:   "create SENTENCE",
		Short: "Create a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				fields := cf.apply(cmd, card.Fields{Front: args[0]})
				return saveCard(cmd.OutOrStdout(), p, "", fields, cf.assist)
			})
		},
	}
	cf.register(cmd, false)
	return cmd
}

func newEditCommand(flags *cli.Flags) *cobra.Command {
	var cf cardFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the fields of a card given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				c, _, err := p.Show(args[0])
				if err != nil {
					return err
				}
				fields := cf.apply(cmd, c.Fields)
				return saveCard(cmd.OutOrStdout(), p, c.ID, fields, cf.assist)
			})
		},
	}
	cf.register(cmd, true)
	return cmd
}

func saveCard(w io.Writer, p *processor.Processor, id string, fields card.Fields, useAssist bool) error {
	if useAssist {
		filled, err := p.FillIn(fields.Clean())
		if err != nil {
			return err
		}
		fields = filled
	}

	saved, err := p.SaveCard(id, fields)
	if err != nil {
		return err
	}
	_, lines, err := p.Show(saved.ID)
	if err != nil {
		return err
	}
	printCard(w, saved, lines)
	return nil
}

func newDeleteCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				if err := p.DeleteCard(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
				return nil
			})
		},
	}
}

func newSayCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "say SENTENCE",
		Short: "Speak a sentence that is not a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				if err := p.Speak(args[0]); err != nil {
					return err
				}
				p.WaitForPlayback()
				return nil
			})
		},
	}
}

func newPlayCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "play ID [INDEX]",
		Short: "Play an audio file of a card, the first one by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := fileIndex(args, 1)
			if err != nil {
				return err
			}
			return withProcessor(flags, func(p *processor.Processor) error {
				if err := p.PlayCardFile(args[0], index); err != nil {
					return err
				}
				p.WaitForPlayback()
				return nil
			})
		},
	}
}

func newRegenAudioCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "regen-audio ID [INDEX]",
		Short: "Generate a new audio file for a card, the first one by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := fileIndex(args, 1)
			if err != nil {
				return err
			}
			return withProcessor(flags, func(p *processor.Processor) error {
				c, err := p.RegenerateAudio(args[0], index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audio %d of card %s: %s\n", index, c.ID, c.Files[index])
				return nil
			})
		},
	}
}

func newAssistCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "assist SENTENCE",
		Short: "Ask the LLM for the translation and main words of a sentence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				analysis, err := p.Analyze(args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Translation: %s\n", analysis.Translation)
				fmt.Fprintf(w, "Main words:  %s\n", strings.Join(analysis.MainWords, " "))
				return nil
			})
		},
	}
}

func newAlterCommand(flags *cli.Flags) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "alter SENTENCE",
		Short: "Ask the LLM for a variation of a sentence",
		Long: `Ask the LLM for a variation of a sentence.

Notes starting with "gpt:" are passed to the LLM as instruction, e.g.
  flashcards alter 猫が好きです。 --notes "gpt: use the past tense"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				alteration, err := p.Alter(args[0], notes)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), alteration.Phrase)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Notes guiding the variation")
	return cmd
}

func newImportCommand(flags *cli.Flags) *cobra.Command {
	var useAssist bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create cards from a file, one per line",
		Long: `Create cards from a file, one card per line:

  front [= back] [| main words]

Lines starting with # are comments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				_, err := p.Import(args[0], useAssist)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&useAssist, "assist", false, "Fill in missing translations and main words with the LLM")
	return cmd
}

func newExportCommand(flags *cli.Flags) *cobra.Command {
	var withAudio bool

	cmd := &cobra.Command{
		Use:   "export PATH",
		Short: "Export all cards as Anki import file",
		Long: `Export all cards as Anki import file.

Without --audio PATH is the CSV file. With --audio PATH is a directory
receiving import.csv and the audio files in collection.media.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				_, err := p.Export(args[0], withAudio)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&withAudio, "audio", false, "Download the audio files as well")
	return cmd
}

func newModelsCommand(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the OpenAI chat models usable for assist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProcessor(flags, func(p *processor.Processor) error {
				return p.ListModels()
			})
		},
	}
}

// fileIndex parses the optional audio file index at args[i]
func fileIndex(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, nil
	}
	index, err := strconv.Atoi(args[i])
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid audio file index: %s", args[i])
	}
	return index, nil
}
