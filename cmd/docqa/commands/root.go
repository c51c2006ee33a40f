// ABOUTME: Root command and global flags for the docqa CLI
// ABOUTME: Registers every subcommand; flags control log level, output format and the model judge
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Output formats accepted by --format
const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	useJudge     bool
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Grounded Q&A and summaries over crypto whitepapers",
		Long: `docqa reads a whitepaper (PDF or plain text), indexes it, and answers
questions strictly from its content. Every answer cites page and section,
or says exactly "Information not found in the document."

It also writes a structured, non-promotional summary and evaluates both
summaries and answers with deterministic checks and an optional model judge.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(outputFormat)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and show retrieved chunks")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", formatAuto, "Output format: auto, text, json or yaml")
	cmd.PersistentFlags().BoolVar(&useJudge, "judge", false, "Ask a model to grade evaluations")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIndexCmd(),
		NewSummarizeCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewEvalCmd(),
		NewServeCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func validateFormat(format string) error {
	switch format {
	case formatAuto, formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unsupported format %q (valid: auto, text, json, yaml)", format)
}
