package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grantcarthew/wsecho/internal/echo"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local WebSocket echo endpoint",
	Long:  "Starts a WebSocket server that writes every received frame back to its sender. Runs until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "localhost", "Bind host")
	serveCmd.Flags().Int("port", 8080, "Listen port (0 = auto)")
	serveCmd.Flags().String("path", "/", "Endpoint path")
	serveCmd.Flags().String("engine", string(echo.EngineCoder), "WebSocket implementation: coder or gorilla")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	path, _ := cmd.Flags().GetString("path")
	engine, _ := cmd.Flags().GetString("engine")

	srv, err := echo.New(echo.Config{
		Host:   host,
		Port:   port,
		Path:   path,
		Engine: echo.Engine(engine),
		Debug:  Debug,
	})
	if err != nil {
		return outputError(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serveUntilDone(ctx, srv)
}

// serveUntilDone starts srv, reports its URL and blocks until ctx is done.
func serveUntilDone(ctx context.Context, srv *echo.Server) error {
	if err := srv.Start(ctx); err != nil {
		return outputError(err.Error())
	}

	if JSONOutput {
		outputSuccess(map[string]any{"url": srv.URL()})
	} else {
		fmt.Fprintf(stdout, "Echo server listening on %s\n", srv.URL())
	}

	<-srv.Done()
	debugf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return outputError(err.Error())
	}
	return nil
}
