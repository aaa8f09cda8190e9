package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Player plays an audio file addressed by URL
type Player interface {
	// Play starts playback and returns without waiting for it to finish
	Play(ctx context.Context, url string) error
}

// CommandPlayer plays audio with the platform's command line player.
// Only one sound plays at a time; starting a new one stops the previous.
type CommandPlayer struct {
	goos     string
	lookPath func(file string) (string, error)
	logger   *zap.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{} // Closed when cmd exits
}

// NewCommandPlayer creates a player for the current platform
func NewCommandPlayer(logger *zap.Logger) *CommandPlayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandPlayer{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// Play starts playing url in the background
func (p *CommandPlayer) Play(ctx context.Context, url string) error {
	name, args, err := playerCommand(p.goos, url, p.lookPath)
	if err != nil {
		return err
	}

	p.Stop()

	// Playback is not bound to ctx
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	p.logger.Info("Playing audio", zap.String("url", url), zap.String("player", name))

	done := make(chan struct{})
	p.mu.Lock()
	p.cmd = cmd
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
		if err != nil {
			p.logger.Debug("Playback ended", zap.String("url", url), zap.Error(err))
		}
	}()

	return nil
}

// Wait blocks until the current playback, if any, has finished
func (p *CommandPlayer) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Stop kills the current playback, if any
func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
}

// playerCommand picks the command used to play url on goos
func playerCommand(goos, url string, lookPath func(string) (string, error)) (string, []string, error) {
	if url == "" {
		return "", nil, fmt.Errorf("no audio URL to play")
	}

	switch goos {
	case "darwin": // macOS
		// afplay cannot stream, ffplay can when installed
		if _, err := lookPath("ffplay"); err == nil {
			return "ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", url}, nil
		}
		return "open", []string{"-g", url}, nil
	case "linux":
		// Try players that can stream from HTTP, mpg123 first since it
		// handles MP3 files best
		if _, err := lookPath("mpg123"); err == nil {
			return "mpg123", []string{"-q", url}, nil
		}
		if _, err := lookPath("ffplay"); err == nil {
			return "ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", url}, nil
		}
		if _, err := lookPath("mpv"); err == nil {
			return "mpv", []string{"--no-video", "--really-quiet", url}, nil
		}
		return "", nil, fmt.Errorf("no audio player found. Install mpg123, ffplay or mpv")
	case "windows":
		return "cmd", []string{"/c", "start", "", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
