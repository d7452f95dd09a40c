package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"auramythos/archive"
	"auramythos/generator"
)

var (
	writeFormat  string
	writeOnError string
	writeTitle   string
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write a story interactively",
	Long: `Reads one line of input at a time and prints the next paragraph.

Commands:
  :save  archive the story so far under STORY_DIR
  :q     quit (an empty line also quits)`,
	Args: cobra.NoArgs,
	RunE: runWrite,
}

func init() {
	f := writeCmd.Flags()
	f.StringVar(&writeFormat, "format", generator.DefaultFormatID, "format template id")
	f.StringVar(&writeOnError, "on-error", "", "raise or demo (defaults to ON_GENERATION_ERROR)")
	f.StringVar(&writeTitle, "title", "", "title used by :save")
}

func runWrite(cmd *cobra.Command, _ []string) error {
	def, err := defaultPolicy()
	if err != nil {
		return err
	}
	policy, err := generator.ParseErrorPolicy(writeOnError, def)
	if err != nil {
		return err
	}
	svc, err := buildService(appConfig.LLM)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	sess := generator.NewSession(uuid.NewString(), writeFormat, svc)
	snap := sess.Snapshot()
	fmt.Fprintf(out, "Writing a %s story. Type the beginning; :save archives, :q quits.\n", svc.Formats().Resolve(snap.Format).Name)

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "", ":q":
			return nil
		case ":save":
			if err := saveSession(cmd, sess); err != nil {
				return err
			}
			continue
		}

		res, err := sess.Continue(ctx, line, policy)
		if err != nil {
			var genErr *generator.GenerationError
			if errors.As(err, &genErr) {
				fmt.Fprintf(out, "generation failed, try again: %v\n", genErr.Err)
				continue
			}
			return err
		}
		fmt.Fprintf(out, "\n%s\n\n", res.Continuation)
	}
	return in.Err()
}

func saveSession(cmd *cobra.Command, sess *generator.Session) error {
	out := cmd.OutOrStdout()
	snap := sess.Snapshot()
	if strings.TrimSpace(snap.Story) == "" {
		fmt.Fprintln(out, "nothing to save yet")
		return nil
	}
	stories, err := archive.New(appConfig.Archive.Dir)
	if err != nil {
		return err
	}
	entry, err := stories.Save(cmd.Context(), archive.Story{
		Title:  writeTitle,
		Format: snap.Format,
		Text:   snap.Story,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s (%s)\n", entry.ID, entry.HTMLPath)
	return nil
}
