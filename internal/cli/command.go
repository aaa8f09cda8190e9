package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flashcards",
		Short: "Japanese flashcards client",
		Long: `flashcards manages Japanese study cards stored on a flashcards backend.

Cards hold a Japanese sentence, its translation and its main words. The
backend generates text-to-speech audio for every card, and an LLM can
fill in the translation and main words for you.

Examples:
  flashcards list                        # Show all cards, newest first
  flashcards search 天気                 # Filter cards
  flashcards create 公園に行きましょう。 --assist
  flashcards say 今日はいい天気ですね。  # Speak a sentence
  flashcards import cards.txt            # Create cards from a file`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.flashcards.yaml)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	// Backend flags
	pf.StringVar(&flags.APIURL, "api-url", flags.APIURL, "Base URL of the flashcards backend")

	// Assist flags
	pf.StringVar(&flags.AssistProvider, "assist-provider", flags.AssistProvider, "LLM provider: openai or gemini")
	pf.StringVar(&flags.AssistModel, "assist-model", flags.AssistModel, "LLM model (empty selects the provider default)")
	pf.StringVar(&flags.AssistURL, "assist-url", "", "Base URL of an OpenAI compatible API")
	pf.Float64Var(&flags.Temperature, "temperature", flags.Temperature, "Sampling temperature 0 to 2 (-1 keeps the provider default)")

	// Display flags
	pf.IntVar(&flags.MaxLineChars, "max-line-chars", flags.MaxLineChars, "Characters per line when showing a card")

	// Bind flags to viper
	bindFlagsToViper(pf)
}

// bindFlagsToViper makes the config keys follow the flags when they are set
func bindFlagsToViper(pf *pflag.FlagSet) {
	viper.BindPFlag("api.base_url", pf.Lookup("api-url"))
	viper.BindPFlag("assist.provider", pf.Lookup("assist-provider"))
	viper.BindPFlag("assist.model", pf.Lookup("assist-model"))
	viper.BindPFlag("assist.base_url", pf.Lookup("assist-url"))
	viper.BindPFlag("assist.temperature", pf.Lookup("temperature"))
	viper.BindPFlag("display.max_line_chars", pf.Lookup("max-line-chars"))
}

// InitConfig initializes viper configuration. A .env file in the working
// directory is loaded into the environment first.
func InitConfig(cfgFile string) {
	// Existing environment variables win over .env
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".flashcards" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".flashcards")
	}

	// Environment variables, e.g. FLASHCARDS_API_TOKEN for api.token
	viper.SetEnvPrefix("FLASHCARDS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("assist.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("assist.gemini_key")
}

// GetAPIToken retrieves the backend bearer token from FLASHCARDS_API_TOKEN
// or config
func GetAPIToken() string {
	return viper.GetString("api.token")
}

// NewLogger creates the application logger. Verbose mode logs at debug level
// in a human-friendly format.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	config.Encoding = "console"
	config.DisableStacktrace = true
	return config.Build()
}
