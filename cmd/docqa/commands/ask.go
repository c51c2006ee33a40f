// ABOUTME: CLI command to ask one question about a whitepaper
// ABOUTME: Indexes the document, then answers with page and section references or the refusal
package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewAskCmd creates ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <file> <question>",
		Short: "Ask a question about a whitepaper",
		Long: `Index a whitepaper and answer one question from it. Answers contain
ANSWER, EVIDENCE and REFERENCES sections, or exactly
"Information not found in the document."

Examples:
  docqa ask whitepaper.pdf "What is the total token supply?"
  docqa ask whitepaper.pdf "Who audited the contracts?" -v`,
		Args: cobra.MinimumNArgs(2),
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, _, err := a.loadAndIndex(ctx, args[0]); err != nil {
		return err
	}

	answer, err := a.session.Ask(ctx, strings.Join(args[1:], " "))
	if err != nil && !answer.Refused {
		return err
	}
	if err != nil {
		a.logger.Warn("answer replaced by refusal", zap.Error(err))
	}

	return writeResult(cmd.OutOrStdout(), answer, func(o *output) {
		printAnswer(o, answer)
	})
}
