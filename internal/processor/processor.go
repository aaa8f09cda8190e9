package processor

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal/api"
	"codeberg.org/snonux/flashcards/internal/assist"
	"codeberg.org/snonux/flashcards/internal/audio"
	"codeberg.org/snonux/flashcards/internal/cli"
	"codeberg.org/snonux/flashcards/internal/dispatch"
	"codeberg.org/snonux/flashcards/internal/models"
	"codeberg.org/snonux/flashcards/internal/store"
	"codeberg.org/snonux/flashcards/internal/terms"
)

// Dependencies are the collaborators of a Processor
type Dependencies struct {
	API    *api.Client    // Required
	Assist *assist.Client // Nil when no LLM is configured
	Player audio.Player   // Required for playback
	Lister *models.Lister
	Logger *zap.Logger

	// AssistErr explains why Assist is nil
	AssistErr error

	// AssistModel is marked when listing models
	AssistModel  string
	MaxLineChars int

	Out    io.Writer // Progress output, os.Stdout when nil
	ErrOut io.Writer // Error output, os.Stderr when nil
}

// Processor handles the user actions
type Processor struct {
	api       *api.Client
	assist    *assist.Client
	assistErr error
	player    audio.Player
	lister    *models.Lister
	logger    *zap.Logger

	assistModel  string
	maxLineChars int
	out          io.Writer
	errOut       io.Writer

	// Owned by the loop goroutine
	store *store.Store
	rng   *rand.Rand

	loop *dispatch.Loop
}

// NewProcessor creates a processor configured from flags and viper
func NewProcessor(flags *cli.Flags, logger *zap.Logger) (*Processor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := api.NewClient(NewAPIConfig(flags), logger.Named("api"))
	if err != nil {
		return nil, err
	}

	deps := Dependencies{
		API:          client,
		Player:       audio.NewCommandPlayer(logger.Named("audio")),
		Logger:       logger,
		MaxLineChars: maxLineChars(flags),
	}

	assistConfig := NewAssistConfig(flags)
	deps.AssistModel = assistConfig.Model
	if provider, err := assist.NewProvider(assistConfig); err != nil {
		logger.Debug("Assist is not available", zap.Error(err))
		deps.AssistErr = err
	} else {
		deps.Assist = assist.NewClient(provider, assistConfig, logger.Named("assist"))
	}

	if assistConfig.OpenAIKey != "" {
		deps.Lister = models.NewLister(assistConfig.OpenAIKey, assistConfig.OpenAIBaseURL)
	}

	return New(deps), nil
}

// New creates a processor from explicit dependencies and starts its loop
func New(deps Dependencies) *Processor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := deps.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}
	maxChars := deps.MaxLineChars
	if maxChars < 1 {
		maxChars = terms.DefaultMaxLineChars
	}
	assistErr := deps.AssistErr
	if deps.Assist == nil && assistErr == nil {
		assistErr = fmt.Errorf("no assist provider configured")
	}

	p := &Processor{
		api:          deps.API,
		assist:       deps.Assist,
		assistErr:    assistErr,
		player:       deps.Player,
		lister:       deps.Lister,
		logger:       logger,
		assistModel:  deps.AssistModel,
		maxLineChars: maxChars,
		out:          out,
		errOut:       errOut,
		store:        store.New(deps.API, logger.Named("store")),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		loop:         dispatch.NewLoop(context.Background(), logger.Named("loop")),
	}

	p.loop.SetCallbacks(
		func(job dispatch.Job) {
			p.logger.Debug("Job status changed",
				zap.Int("job", job.ID),
				zap.String("name", job.Name),
				zap.Stringer("status", job.Status))
		},
		func(job dispatch.Job) {
			if job.Error != nil {
				p.logger.Debug("Job failed",
					zap.Int("job", job.ID),
					zap.String("name", job.Name),
					zap.Error(job.Error))
			}
		},
	)
	go p.loop.Run()

	return p
}

// NewAPIConfig returns the backend settings from viper, falling back to flags
func NewAPIConfig(flags *cli.Flags) *api.Config {
	config := api.DefaultConfig()
	if flags != nil && flags.APIURL != "" {
		config.BaseURL = flags.APIURL
	}
	if baseURL := viper.GetString("api.base_url"); baseURL != "" {
		config.BaseURL = baseURL
	}
	config.Token = cli.GetAPIToken()
	return config
}

// NewAssistConfig returns the assist settings from viper, falling back to
// flags. A negative temperature keeps the provider default.
func NewAssistConfig(flags *cli.Flags) *assist.Config {
	if flags == nil {
		flags = cli.NewFlags()
	}

	config := assist.DefaultConfig()
	config.Provider = firstNonEmpty(viper.GetString("assist.provider"), flags.AssistProvider, config.Provider)
	config.Model = firstNonEmpty(viper.GetString("assist.model"), flags.AssistModel)
	config.OpenAIBaseURL = firstNonEmpty(viper.GetString("assist.base_url"), flags.AssistURL)
	config.OpenAIKey = cli.GetOpenAIKey()
	config.GeminiKey = cli.GetGeminiKey()

	temperature := flags.Temperature
	if viper.IsSet("assist.temperature") {
		temperature = viper.GetFloat64("assist.temperature")
	}
	if temperature >= 0 {
		config.Temperature = assist.Temperature(float32(temperature))
	}

	return config
}

func maxLineChars(flags *cli.Flags) int {
	if n := viper.GetInt("display.max_line_chars"); n > 0 {
		return n
	}
	if flags != nil {
		return flags.MaxLineChars
	}
	return terms.DefaultMaxLineChars
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AssistAvailable returns nil when the LLM assist can be used
func (p *Processor) AssistAvailable() error {
	if p.assist == nil {
		return fmt.Errorf("assist is not available: %w", p.assistErr)
	}
	if err := p.assist.Provider().IsAvailable(); err != nil {
		return fmt.Errorf("assist is not available: %w", err)
	}
	return nil
}

// JobStats counts the jobs run so far by outcome
func (p *Processor) JobStats() (completed, failed int) {
	_, _, completed, failed = p.loop.QueueStatus()
	return completed, failed
}

// Close stops the loop and waits for running jobs to return
func (p *Processor) Close() {
	p.loop.Stop()
	p.loop.Wait()

	for _, job := range p.loop.Jobs() {
		if job.Status == dispatch.StatusFailed {
			p.logger.Debug("Failed job",
				zap.Int("job", job.ID),
				zap.String("name", job.Name),
				zap.Error(job.Error))
		}
	}
	completed, failed := p.JobStats()
	p.logger.Debug("Processor stopped", zap.Int("completed", completed), zap.Int("failed", failed))
}

// run executes task as a background job and then apply with the task's
// error on the loop. It returns once apply has run.
func (p *Processor) run(name string, task func(ctx context.Context) error, apply func(err error) error) error {
	done := make(chan error, 1)
	p.loop.Go(name, task, func(err error) {
		if apply != nil {
			err = apply(err)
		}
		done <- err
	})

	select {
	case err := <-done:
		return err
	case <-p.loop.Done():
		return dispatch.ErrStopped
	}
}

// onLoop runs fn on the loop and waits for it
func (p *Processor) onLoop(fn func()) error {
	return p.loop.Call(fn)
}
