package cli

// NoTemperature keeps the assist provider's default sampling temperature
const NoTemperature = -1

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile string
	Verbose bool

	// Backend flags
	APIURL string

	// Assist flags
	AssistProvider string
	AssistModel    string
	AssistURL      string
	Temperature    float64

	// Display flags
	MaxLineChars int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		APIURL:         "http://localhost:3000",
		AssistProvider: "openai",
		AssistModel:    "gpt-4",
		Temperature:    NoTemperature,
		MaxLineChars:   11,
	}
}
