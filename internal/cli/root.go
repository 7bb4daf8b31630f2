// Package cli implements the cairn command tree.
//
// The CLI is a thin local administration shell over the inventory
// engine: it opens the configured SQLite store directly and calls
// engine operations. It is not a network transport.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/cairn/internal/config"
	"github.com/roach88/cairn/internal/inventory"
	"github.com/roach88/cairn/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cairn CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cairn",
		Short: "Cairn - configuration management inventory",
		Long:  "Cairn keeps a tagged inventory of items with inherited variables\nand computes the effective variable set per item for orchestration tooling.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (YAML)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewItemCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewVarCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewVarsCommand(opts))
	cmd.AddCommand(NewInventoryCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Config loads the configuration file, or the defaults when none is given.
func (o *RootOptions) Config() (config.Config, error) {
	if o.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(o.ConfigPath)
}

// Logger builds the process logger from config and flags.
func (o *RootOptions) Logger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if o.Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// OpenEngine opens the configured store and wires the engine.
// The returned cleanup closes the store.
func (o *RootOptions) OpenEngine() (*inventory.Engine, config.Config, func() error, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	s, err := store.Open(cfg.Database)
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("open %s: %w", cfg.Database, err)
	}

	eng, err := inventory.New(inventory.Config{
		Store:    s,
		Logger:   o.Logger(cfg),
		ItemHref: func(name string) string { return "/api/item/" + name + "/" },
		TagHref:  func(name string) string { return "/api/tag/" + name + "/" },
	})
	if err != nil {
		s.Close()
		return nil, config.Config{}, nil, err
	}
	return eng, cfg, s.Close, nil
}
