package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/grantcarthew/wsecho/internal/scenario"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively send messages and wait for their echo",
	Long: `Opens one connection and reads lines from the terminal. Each line is sent
as a text frame and its echo awaited with --timeout / --interval.

Lines starting with ':' are REPL commands; type :help to list them.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	addSessionFlags(replCmd)
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	cfg, err := sessionConfig(cmd)
	if err != nil {
		return outputError(err.Error())
	}

	// Ctrl-C only aborts the handshake; at the prompt liner handles it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	session, err := scenario.Open(ctx, cfg)
	stop()
	if err != nil {
		return outputError(err.Error())
	}
	defer session.Close()

	r := newREPL(session, cfg.URL)
	return r.Run(context.Background())
}

// REPL sends each entered line over a scenario session.
type REPL struct {
	session *scenario.Session
	url     string
	liner   *liner.State
	history []string
	done    bool
}

func newREPL(session *scenario.Session, url string) *REPL {
	return &REPL{
		session: session,
		url:     url,
	}
}

// Run starts the REPL loop. Blocks until exit command or EOF.
func (r *REPL) Run(ctx context.Context) error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)

	for !r.done {
		line, err := r.liner.Prompt("wsecho> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		r.liner.AppendHistory(line)
		r.history = append(r.history, line)

		r.handleLine(ctx, line)
	}
	return nil
}

// replCommands lists REPL-specific commands for abbreviation matching.
var replCommands = []string{"exit", "quit", "help", "history", "messages", "clear"}

// expandAbbreviation expands a command prefix to a full command name.
// Returns the expanded command and true if exactly one match found.
// Returns empty string and false if no matches or ambiguous.
func expandAbbreviation(prefix string, commands []string) (string, bool) {
	prefix = strings.ToLower(prefix)
	var matches []string
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, prefix) {
			matches = append(matches, cmd)
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

// handleLine runs a ':' command or sends the line as a message.
func (r *REPL) handleLine(ctx context.Context, line string) {
	if strings.HasPrefix(line, ":") {
		r.handleCommand(strings.TrimSpace(line[1:]))
		return
	}
	r.send(ctx, line)
}

// handleCommand handles REPL-specific commands.
func (r *REPL) handleCommand(name string) {
	cmd := strings.ToLower(name)
	if expanded, ok := expandAbbreviation(cmd, replCommands); ok {
		cmd = expanded
	}

	switch cmd {
	case "exit", "quit":
		r.done = true
	case "help", "?":
		r.printHelp()
	case "history":
		r.printHistory()
	case "messages":
		for i, msg := range r.session.Registry().Messages() {
			fmt.Fprintf(stdout, "  %d  %s\n", i+1, msg)
		}
	case "clear":
		r.session.Registry().Clear()
		outputSuccess(nil)
	default:
		outputError(fmt.Sprintf("unknown command: :%s", name))
	}
}

// send transmits text and prints its echo.
func (r *REPL) send(ctx context.Context, text string) {
	res, err := r.session.Run(ctx, scenario.Scenario{Messages: []string{text}})
	if err != nil {
		outputError(err.Error())
		return
	}
	debugf("echo after %s", res.Elapsed)

	if JSONOutput {
		outputSuccess(res.Received)
		return
	}
	for _, msg := range res.Received {
		fmt.Fprintf(stdout, "< %s\n", msg)
	}
}

// printHelp displays available commands.
func (r *REPL) printHelp() {
	help := `
Connected to %s

Any other line is sent as a text frame and its echo awaited.

Commands (unique prefixes accepted: :e=exit, :q=quit, :he=help, :hi=history, :m=messages, :c=clear):
  :help, :?     Show this help
  :history      Show entered lines
  :messages     Show frames received by the last send
  :clear        Clear received frames
  :exit, :quit  Disconnect and exit
`
	fmt.Fprintf(stdout, help, r.url)
}

// printHistory displays line history.
func (r *REPL) printHistory() {
	for i, line := range r.history {
		fmt.Fprintf(stdout, "  %d  %s\n", i+1, line)
	}
}
