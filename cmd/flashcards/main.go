package main

import (
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/flashcards/internal/cli"
	"codeberg.org/snonux/flashcards/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Without a subcommand the cards are listed
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withProcessor(flags, func(p *processor.Processor) error {
			return listCards(cmd.OutOrStdout(), p, false, false)
		})
	}
	addCommands(rootCmd, flags)

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
