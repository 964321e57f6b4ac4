package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storygraph/internal/game"
	"storygraph/internal/story"
)

func newPlayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "play FILE...",
		Short: "Play the story in the terminal",
		Long:  "Plays from the start node. Pick a choice by number or id; q quits.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			cur, err := game.Begin(doc, nil)
			if err != nil {
				return err
			}
			return play(cmd.InOrStdin(), cmd.OutOrStdout(), app.Roller, doc, cur)
		},
	}
}

var titleCaser = cases.Title(language.English)

func play(in io.Reader, out io.Writer, roller game.Roller, doc *story.Document, cur *game.Cursor) error {
	scanner := bufio.NewScanner(in)
	for {
		v := cur.View()
		fmt.Fprintf(out, "\n== %s ==\n%s\n", v.Title, v.Text)
		printSkills(out, cur.Skills())
		if v.Ended {
			fmt.Fprintln(out, "THE END")
			return nil
		}
		if len(v.Choices) == 0 {
			fmt.Fprintln(out, "No choice is open to you here.")
			return nil
		}
		for i, c := range v.Choices {
			if c.Skill != "" {
				fmt.Fprintf(out, "  %d) %s [%s, %s]\n", i+1, c.Text, titleCaser.String(c.Skill), c.Difficulty)
			} else {
				fmt.Fprintf(out, "  %d) %s\n", i+1, c.Text)
			}
		}

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "q" || input == "quit" {
			return nil
		}
		id := input
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(v.Choices) {
			id = v.Choices[n-1].ID
		}

		outcome := story.OutcomeNone
		if ch, ok := cur.Current().Choice(id); ok && ch.Kind() == story.ChoiceCheck && cur.Selectable(ch) {
			res := game.ResolveCheck(roller, doc.Rules, ch.Check, cur.Skills())
			fmt.Fprintf(out, "%s check: rolled %d + %d = %d against %d, %s\n",
				titleCaser.String(ch.Check.Skill), res.Roll, res.Stat, res.Total, res.DC, res.Outcome())
			outcome = res.Outcome()
		}
		if _, err := cur.ApplyChoice(id, outcome); err != nil {
			if errors.Is(err, game.ErrDanglingTarget) {
				return err
			}
			fmt.Fprintf(out, "%v\n", err)
		}
	}
}

func printSkills(out io.Writer, skills map[string]int) {
	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", titleCaser.String(name), skills[name]))
	}
	fmt.Fprintf(out, "(%s)\n", strings.Join(parts, ", "))
}
