// cmd/quill/main.go
package main

import (
	"errors"
	"fmt"
	stlog "log" // standard log for fatal errors before the logger is ready
	"os"

	"github.com/ashkett/quill/internal/config"
	"github.com/ashkett/quill/internal/event"
	"github.com/ashkett/quill/internal/logger"
	"github.com/ashkett/quill/internal/search"
	"github.com/ashkett/quill/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	// --- Flag & config loading ---
	flags := &config.Flags{}
	files := flags.ParseFlags()

	cfg, err := config.Load(*flags.ConfigFilePath, flags)
	if err != nil {
		stlog.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Logger initialization ---
	logCloser, err := logger.Setup(cfg.Logger)
	if err != nil {
		stlog.Fatalf("Failed to set up logging: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	logger.Infof("Starting quill...")

	// --- Core wiring ---
	events := event.NewManager()
	event.AttachLogBridge(events)
	registry := session.NewRegistry(cfg, events)

	for _, path := range files {
		s, already, err := registry.Open(path)
		if err != nil {
			logger.Errorf("Error opening '%s': %v", path, err)
			fmt.Fprintf(os.Stderr, "quill: cannot open %s: %v\n", path, err)
			return 1
		}
		if already {
			logger.Warnf("'%s' specified twice, reusing session %s", path, s.ID())
		}
	}

	if *flags.Substitute != "" {
		if err := runSubstitute(registry, *flags.Substitute); err != nil {
			fmt.Fprintf(os.Stderr, "quill: %v\n", err)
			return 1
		}
	}

	for _, s := range registry.Sessions() {
		dirty := " "
		if s.Dirty() {
			dirty = "*"
		}
		fmt.Printf("%s %s\n", dirty, s.Path())
	}

	logger.Infof("quill finished.")
	return 0
}

// runSubstitute applies a /pattern/replacement/[g] command to every open
// session and saves the modified ones.
func runSubstitute(registry *session.Registry, cmd string) error {
	pattern, replacement, global, err := search.ParseSubstitute(cmd)
	if err != nil {
		return err
	}

	opts := search.Options{Mode: search.ModeRegex, CaseSensitive: true}
	for _, s := range registry.Sessions() {
		count := 0
		if global {
			count, err = s.ReplaceAll(pattern, opts, replacement)
		} else {
			var matches []search.Match
			matches, err = s.Find(pattern, opts, 0)
			if err == nil && len(matches) > 0 {
				_, err = s.ReplaceOne(matches[0], pattern, replacement, opts)
				count = 1
			}
		}
		if err != nil {
			if errors.Is(err, search.ErrPattern) || errors.Is(err, search.ErrTemplate) {
				return err
			}
			return fmt.Errorf("substitution failed in %s: %w", s.Path(), err)
		}
		if count > 0 {
			if err := s.Save(); err != nil {
				return err
			}
			fmt.Printf("%s: %d replacement(s)\n", s.Path(), count)
		}
	}
	return nil
}
