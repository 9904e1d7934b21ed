package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/niels/mdserve/pkg/listener"
	"github.com/niels/mdserve/pkg/logging"
	"github.com/niels/mdserve/pkg/render"
	"github.com/niels/mdserve/pkg/retry"
	"github.com/niels/mdserve/pkg/server"
	"github.com/niels/mdserve/pkg/workerpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd() *cobra.Command {
	var workers int

	runCmd := &cobra.Command{
		Use:   "run [path] [address]",
		Short: "Serve a directory, rendering Markdown documents on request",
		Long: `Serve a directory over HTTP/1.1.

Requests for "name.html" or for a directory render the matching Markdown
source. Any other path is served verbatim. The server stops on SIGINT or
SIGTERM after every accepted connection has been answered.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cfg.Server.Root
			addr := cfg.Server.Address
			if len(args) > 0 {
				root = args[0]
			}
			if len(args) > 1 {
				addr = args[1]
			}
			if cmd.Flags().Changed("workers") {
				cfg.Server.Workers = workers
			}

			return serve(cmd.Context(), cmd.OutOrStdout(), root, addr)
		},
	}

	runCmd.Flags().IntVar(&workers, "workers", 0, "Number of worker goroutines (overrides config)")

	return runCmd
}

// serve runs the server until ctx ends or a termination signal arrives
func serve(ctx context.Context, out io.Writer, root, addr string) error {
	pool, err := workerpool.New(cfg.Server.Workers, workerpool.WithQueueSize(cfg.Server.QueueSize))
	if err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	l, handle, err := listener.Bind(addr, listener.WithBackoff(retry.FromConfig(cfg)))
	if err != nil {
		pool.Shutdown()
		logging.ErrorWith("Failed to bind", map[string]interface{}{
			"address": addr,
			"error":   err,
		})
		return err
	}

	host := server.HostConfig{
		Root:         root,
		SourceExt:    cfg.Render.SourceExtension,
		IndexName:    cfg.Render.IndexName,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	renderer := render.New(render.Options{CodeStyle: cfg.Render.CodeStyle})
	srv := server.New(l, pool, host, renderer)

	color.New(color.FgGreen, color.Bold).Fprintf(out, "Serving %s on http://%s\n", root, l.Addr())
	fmt.Fprintf(out, "%d workers, press Ctrl+C to stop\n", pool.Size())

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stats server.Stats
	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		defer stop()
		stats = srv.Run()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down")
		if err := handle.Shutdown(); err != nil && !errors.Is(err, listener.ErrAlreadyShutdown) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	color.New(color.FgYellow).Fprintln(out, "Server stopped")
	fmt.Fprintf(out, "Connections: %d accepted, %d served, %d not found, %d failed, %d malformed\n",
		stats.Accepted, stats.Served, stats.NotFound, stats.Failed, stats.Malformed)

	return nil
}
