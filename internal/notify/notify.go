// Package notify plays the new-order sound.
//
// A configured sound_command is run with the sound file as its last
// argument. Without one, the first known player found on PATH is used
// (paplay, aplay, afplay). When no sound file is configured or playback
// fails, a terminal bell is written instead.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	bell        = "\a"
	playTimeout = 10 * time.Second
)

// knownPlayers are tried in order when no command is configured.
var knownPlayers = []string{"paplay", "aplay", "afplay"}

// Runner executes a command to completion.
type Runner func(ctx context.Context, name string, args ...string) error

// Options configure a Player.
type Options struct {
	SoundFile string
	// Command overrides player discovery. It may carry its own arguments.
	Command string
	Logger  *slog.Logger

	// Bell receives the fallback tone. Defaults to os.Stderr.
	Bell     io.Writer
	Run      Runner
	LookPath func(file string) (string, error)
}

// Player plays the notification sound. The zero value only rings the bell.
type Player struct {
	file   string
	argv   []string
	bell   io.Writer
	run    Runner
	logger *slog.Logger
}

// New resolves the player command once.
func New(opts Options) *Player {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bellOut := opts.Bell
	if bellOut == nil {
		bellOut = os.Stderr
	}
	run := opts.Run
	if run == nil {
		run = runCommand
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	p := &Player{
		file:   strings.TrimSpace(opts.SoundFile),
		bell:   bellOut,
		run:    run,
		logger: logger.With("component", "notify"),
	}
	if p.file == "" {
		return p
	}
	if fields := strings.Fields(opts.Command); len(fields) > 0 {
		p.argv = fields
		return p
	}
	for _, name := range knownPlayers {
		if path, err := lookPath(name); err == nil {
			p.argv = []string{path}
			break
		}
	}
	if p.argv == nil {
		p.logger.Warn("no audio player found, using terminal bell", "sound_file", p.file)
	}
	return p
}

// Command returns the resolved player invocation, or nil for the bell.
func (p *Player) Command() []string {
	if p == nil || p.argv == nil {
		return nil
	}
	out := make([]string, 0, len(p.argv)+1)
	out = append(out, p.argv...)
	return append(out, p.file)
}

// Play blocks until the sound finished or the bell was written. Playback
// errors fall back to the bell and are only logged.
func (p *Player) Play(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if argv := p.Command(); argv != nil {
		ctx, cancel := context.WithTimeout(ctx, playTimeout)
		defer cancel()
		err := p.run(ctx, argv[0], argv[1:]...)
		if err == nil {
			return nil
		}
		p.logger.Warn("sound playback failed", "command", argv[0], "error", err)
	}
	return p.ring()
}

func (p *Player) ring() error {
	if p.bell == nil {
		return nil
	}
	if _, err := io.WriteString(p.bell, bell); err != nil {
		return fmt.Errorf("write bell: %w", err)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
