package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/api"
	"github.com/kemeter/ring/pkg/events"
	"github.com/kemeter/ring/pkg/metrics"
	"github.com/kemeter/ring/pkg/scheduler"
	"github.com/kemeter/ring/pkg/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the ring server",
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the API server and the reconciliation scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("database")
		addr, _ := cmd.Flags().GetString("addr")
		maxConns, _ := cmd.Flags().GetInt("max-open-conns")

		store, err := storage.Open(dbPath, maxConns)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		metrics.RegisterComponent("storage", true, "")

		eventLog := events.NewLog(store)

		sched := scheduler.NewScheduler(store)
		sched.Start()
		metrics.RegisterComponent("runtime", true, "")

		collector := metrics.NewCollector(store)
		collector.Start()

		metrics.SetVersion(Version)

		server := api.NewServer(store, eventLog)
		metrics.RegisterComponent("api", true, "")

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(addr)
		}()

		fmt.Printf("ring server listening on %s\n", addr)
		fmt.Println("Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nServer error: %v\n", err)
			}
		}

		sched.Stop()
		collector.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down api server: %w", err)
		}

		fmt.Println("shutdown complete")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().String("database", "ring.db", "path to the sqlite database")
	serverStartCmd.Flags().String("addr", ":3030", "address the API server listens on")
	serverStartCmd.Flags().Int("max-open-conns", 1, "maximum open sqlite connections")

	serverCmd.AddCommand(serverStartCmd)
}
