// Package cli implements the storycheck command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storygraph/internal/chapterfs"
	"storygraph/internal/game"
	"storygraph/internal/logger"
	"storygraph/internal/story"
)

// ErrFindings is returned when validation reports errors, so the process
// exits non-zero after the report has been printed.
var ErrFindings = errors.New("story has validation errors")

// App carries the dependencies shared by every command.
type App struct {
	FS     afero.Fs
	Roller game.Roller
	Logger *zap.Logger

	format   string
	logLevel string
}

func NewRoot() *cobra.Command {
	return NewRootWith(&App{})
}

// NewRootWith builds the command tree around app. Zero fields get defaults:
// the OS filesystem, crypto dice and a logger built from --log-level.
func NewRootWith(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storycheck",
		Short:         "Validate, analyse and play branching story chapters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if app.format != "text" && app.format != "json" {
				return fmt.Errorf("unknown format %q (must be text or json)", app.format)
			}
			if app.FS == nil {
				app.FS = afero.NewOsFs()
			}
			if app.Roller == nil {
				app.Roller = game.CryptoRoller{}
			}
			if app.Logger == nil {
				l, err := logger.New(logger.Config{Level: app.logLevel, Encoding: "console"})
				if err != nil {
					return err
				}
				app.Logger = l
			}
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVar(&app.format, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newAnalyzeCmd(app))
	cmd.AddCommand(newPathCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newPlayCmd(app))
	return cmd
}

func (a *App) load(ctx context.Context, patterns []string) (*story.Document, error) {
	doc, paths, err := chapterfs.New(a.FS).Load(ctx, patterns...)
	if err != nil {
		a.Logger.Error("Failed to load story", zap.Strings("patterns", patterns), zap.Error(err))
		return nil, err
	}
	a.Logger.Info("Story loaded",
		zap.Strings("files", paths), zap.Int("nodes", doc.Len()), zap.String("start", doc.StartNodeID))
	return doc, nil
}

func (a *App) json() bool { return a.format == "json" }
