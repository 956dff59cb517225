package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/grantcarthew/wsecho/internal/scenario"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <message>...",
	Short: "Send messages and wait for their echo",
	Long: `Connects to the endpoint, sends each message as a text frame and waits
until the same number of frames has been received. The received frames must
match the sent ones in order.

Exits non-zero when the echo does not arrive within --timeout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

func init() {
	addSessionFlags(probeCmd)
	probeCmd.Flags().Int("expect", 0, "Number of frames to wait for (default: number of messages)")
	rootCmd.AddCommand(probeCmd)
}

// probeResult is the probe command's output data.
type probeResult struct {
	URL       string   `json:"url"`
	Sent      []string `json:"sent"`
	Received  []string `json:"received"`
	ElapsedMs int64    `json:"elapsedMs"`
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := sessionConfig(cmd)
	if err != nil {
		return outputError(err.Error())
	}
	expect, _ := cmd.Flags().GetInt("expect")
	if expect < 0 {
		return outputError(fmt.Sprintf("--expect must not be negative, got %d", expect))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	debugf("connecting to %s", cfg.URL)
	session, err := scenario.Open(ctx, cfg)
	if err != nil {
		return outputError(err.Error())
	}
	defer session.Close()

	res, err := session.Run(ctx, scenario.Scenario{
		Name:     "probe",
		Messages: args,
		Expect:   expect,
	})
	if err != nil {
		return outputError(err.Error())
	}
	debugf("received %d frames in %s", len(res.Received), res.Elapsed)

	if JSONOutput {
		return outputSuccess(probeResult{
			URL:       cfg.URL,
			Sent:      res.Sent,
			Received:  res.Received,
			ElapsedMs: res.Elapsed.Milliseconds(),
		})
	}

	for _, msg := range res.Received {
		fmt.Fprintln(stdout, msg)
	}
	return nil
}
