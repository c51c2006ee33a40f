// ABOUTME: Interactive chat over one indexed whitepaper
// ABOUTME: Slash commands reset the session, evaluate recent answers, summarize, or quit
package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/session"
)

var (
	chatTranscript string
)

type chatAction int

const (
	chatNone chatAction = iota
	chatAsk
	chatReset
	chatEval
	chatSummary
	chatQuit
	chatUnknown
)

// chatCommand is one parsed input line
type chatCommand struct {
	action chatAction
	text   string
	n      int
}

// parseChatCommand interprets a line typed at the chat prompt
func parseChatCommand(line string) chatCommand {
	line = strings.TrimSpace(line)
	if line == "" {
		return chatCommand{action: chatNone}
	}
	if !strings.HasPrefix(line, "/") {
		return chatCommand{action: chatAsk, text: line}
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/reset":
		return chatCommand{action: chatReset}
	case "/eval":
		n := session.DefaultEvalItems
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		return chatCommand{action: chatEval, n: session.ClampEvalItems(n)}
	case "/summary":
		return chatCommand{action: chatSummary}
	case "/quit", "/exit":
		return chatCommand{action: chatQuit}
	}
	return chatCommand{action: chatUnknown, text: fields[0]}
}

// NewChatCmd creates chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <file>",
		Short: "Chat with a whitepaper",
		Long: `Index a whitepaper and answer questions interactively. The last two
turns per side are remembered for follow-up questions.

Commands:
  /reset      clear chat and reports, then reload the document
  /eval [n]   evaluate the last n answers (1-10, default 5)
  /summary    summarize the document and evaluate the summary
  /quit       leave

Examples:
  docqa chat whitepaper.pdf
  docqa chat whitepaper.pdf --transcript qa.json --judge`,
		Args: cobra.ExactArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringVar(&chatTranscript, "transcript", "", "Write the QA log to this file (.json or .yaml) on exit")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	path := args[0]
	doc, n, err := a.loadAndIndex(ctx, path)
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s indexed (%d pages, %d chunks). Type /quit to leave.\n", doc.Name, len(doc.Pages), n)
	}

	reload := func(ctx context.Context) error {
		_, _, err := a.loadAndIndex(ctx, path)
		return err
	}
	loopErr := chatLoop(ctx, a.session, cmd.InOrStdin(), cmd.OutOrStdout(), reload, a.logger)

	if chatTranscript != "" {
		if err := eval.ExportFile(chatTranscript, a.session.Snapshot().QALog); err != nil {
			return fmt.Errorf("writing transcript: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Transcript written to %s\n", chatTranscript)
		}
	}
	return loopErr
}

// chatLoop reads lines from in until EOF or /quit
func chatLoop(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer, reload func(context.Context) error, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	o := &output{w: out}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if !quiet {
			o.printf("> ")
		}
		if !scanner.Scan() {
			break
		}

		cmd := parseChatCommand(scanner.Text())
		switch cmd.action {
		case chatNone:
			continue
		case chatQuit:
			return o.err
		case chatUnknown:
			o.printf("Unknown command %s (try /reset, /eval [n], /summary, /quit)\n", cmd.text)
		case chatReset:
			sess.Reset()
			if err := reload(ctx); err != nil {
				return err
			}
			o.printf("Session reset.\n")
		case chatAsk:
			answer, err := sess.Ask(ctx, cmd.text)
			if err != nil && !answer.Refused {
				o.printf("Error: %v\n", err)
				continue
			}
			if err != nil {
				logger.Warn("answer replaced by refusal", zap.Error(err))
			}
			printAnswer(o, answer)
		case chatEval:
			report, err := sess.EvaluateQA(ctx, cmd.n, useJudge)
			if err != nil {
				o.printf("Error: %v\n", err)
				continue
			}
			printQAReport(o, report)
		case chatSummary:
			summary, err := sess.Summarize(ctx)
			if err != nil {
				o.printf("Error: %v\n", err)
				continue
			}
			printSummary(o, summary)
			report, err := sess.EvaluateSummary(ctx, useJudge)
			if err != nil {
				o.printf("Error: %v\n", err)
				continue
			}
			o.printf("\n")
			printSummaryReport(o, report)
		}
		if o.err != nil {
			return o.err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return o.err
}
