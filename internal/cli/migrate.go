package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"storygraph/internal/chapterfs"
	"storygraph/internal/story"
)

type migrateOptions struct {
	difficulty   bool
	fillBranches bool
	legacy       []string
	title        string
	start        string
	output       string
}

func newMigrateCmd(app *App) *cobra.Command {
	var opts migrateOptions
	cmd := &cobra.Command{
		Use:   "migrate FILE",
		Short: "Rewrite a chapter from legacy layouts into the canonical shape",
		Long: `Rewrites one chapter file. Each rewrite is opt-in:

  --legacy flat     wrap a bare {id: node} map into a chapter
  --legacy fields   rename "next" to "nextNode" and skillCheck "type" to "skill"
                    (both can be given, e.g. --legacy flat,fields)
  --difficulty      turn numeric difficulties into easy, medium or hard
  --fill-branches   point branchless skill checks at the choice's nextNode

The result is written as JSON to --output, or to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, app, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.difficulty, "difficulty", false, "Classify numeric skill check difficulties")
	cmd.Flags().BoolVar(&opts.fillBranches, "fill-branches", false, "Fill missing skill check branches from nextNode")
	cmd.Flags().StringSliceVar(&opts.legacy, "legacy", nil, "Legacy layouts to upgrade from, in order: flat, fields")
	cmd.Flags().StringVar(&opts.title, "title", "", "Chapter title for --legacy flat")
	cmd.Flags().StringVar(&opts.start, "start", "", "Start node for --legacy flat")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func runMigrate(cmd *cobra.Command, app *App, path string, opts migrateOptions) error {
	fs := chapterfs.New(app.FS)
	raw, err := fs.ReadFile(path)
	if err != nil {
		return err
	}

	var changes []story.Change
	var ch story.Chapter
	switch {
	case len(opts.legacy) > 0:
		if !strings.EqualFold(filepath.Ext(path), ".json") {
			return fmt.Errorf("--legacy only reads JSON files")
		}
		upgraded := raw
		for _, format := range opts.legacy {
			var c []story.Change
			upgraded, c, err = story.UpgradeLegacy(upgraded, story.LegacyOptions{
				Format:    story.LegacyFormat(format),
				Title:     opts.title,
				StartNode: opts.start,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			changes = append(changes, c...)
		}
		if ch, err = story.ParseChapter(upgraded); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	case chapterfs.Supported(path) && !strings.EqualFold(filepath.Ext(path), ".json"):
		if err := yaml.Unmarshal(raw, &ch); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	default:
		if ch, err = story.ParseChapter(raw); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if opts.difficulty {
		var c []story.Change
		ch, c = story.NormalizeDifficulties(ch)
		changes = append(changes, c...)
	}
	if opts.fillBranches {
		var c []story.Change
		ch, c = story.FillCheckBranches(ch)
		changes = append(changes, c...)
	}

	doc, err := story.Merge(ch)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	out, err := story.Marshal(doc)
	if err != nil {
		return err
	}

	for _, c := range changes {
		fmt.Fprintln(cmd.ErrOrStderr(), c)
	}
	app.Logger.Info("Chapter migrated", zap.String("file", path), zap.Int("changes", len(changes)))

	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	return fs.WriteFileAtomic(opts.output, out)
}
