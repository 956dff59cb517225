package cli

import (
	"fmt"
	"os"

	"github.com/grantcarthew/wsecho/internal/poll"
	"github.com/grantcarthew/wsecho/internal/scenario"
	"github.com/spf13/cobra"
)

// addSessionFlags registers the connection and wait flags shared by probe and repl.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "WebSocket endpoint (default $WSECHO_URL or "+DefaultURL+")")
	cmd.Flags().Int("timeout", 1000, "Time to wait for the echo, in milliseconds")
	cmd.Flags().Int("interval", 250, "Poll interval, in milliseconds")
}

// resolveURL picks the endpoint: flag, then WSECHO_URL, then DefaultURL.
func resolveURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("WSECHO_URL"); env != "" {
		return env
	}
	return DefaultURL
}

// sessionConfig builds a scenario configuration from the command's flags.
func sessionConfig(cmd *cobra.Command) (scenario.Config, error) {
	url, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetInt("timeout")
	interval, _ := cmd.Flags().GetInt("interval")

	if timeout < 0 {
		return scenario.Config{}, fmt.Errorf("--timeout must not be negative, got %d", timeout)
	}
	if interval <= 0 {
		return scenario.Config{}, fmt.Errorf("--interval must be positive, got %d", interval)
	}

	return scenario.Config{
		URL:      resolveURL(url),
		Timeout:  poll.Millis(timeout),
		Interval: poll.Millis(interval),
		Debug:    Debug,
	}, nil
}
