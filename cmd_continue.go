package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"auramythos/generator"
)

var (
	continueFormat  string
	continueContext string
	continueHistory string
	continueOnError string
)

var continueCmd = &cobra.Command{
	Use:   "continue [text]",
	Short: "Produce one continuation and print it as JSON",
	Long: `Continues a story once. The arguments are joined into the new input.

Example:
  auramythos continue --format comic "She opened the box."
  auramythos continue --context "$(cat story.txt)" --history turns.json "The door creaks."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContinue,
}

func init() {
	f := continueCmd.Flags()
	f.StringVar(&continueFormat, "format", generator.DefaultFormatID, "format template id")
	f.StringVar(&continueContext, "context", "", "story so far")
	f.StringVar(&continueHistory, "history", "", "JSON file holding the conversation history")
	f.StringVar(&continueOnError, "on-error", "", "raise or demo (defaults to ON_GENERATION_ERROR)")
}

func runContinue(cmd *cobra.Command, args []string) error {
	input, err := generator.ValidateInput(strings.Join(args, " "))
	if err != nil {
		return err
	}
	def, err := defaultPolicy()
	if err != nil {
		return err
	}
	policy, err := generator.ParseErrorPolicy(continueOnError, def)
	if err != nil {
		return err
	}
	history, err := readHistory(continueHistory)
	if err != nil {
		return err
	}
	svc, err := buildService(appConfig.LLM)
	if err != nil {
		return err
	}

	req := generator.ContinueRequest{
		NewInput:        input,
		PreviousContext: continueContext,
		Format:          continueFormat,
		History:         history,
	}
	res, err := svc.Continue(cmd.Context(), req)
	res, err = policy.Apply(svc, req, res, err)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func readHistory(path string) ([]generator.ConversationTurn, error) {
	if path == "" {
		return []generator.ConversationTurn{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []generator.ConversationTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	if turns == nil {
		turns = []generator.ConversationTurn{}
	}
	return turns, nil
}
