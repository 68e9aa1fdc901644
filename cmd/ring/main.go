package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/client"
	"github.com/kemeter/ring/pkg/config"
	"github.com/kemeter/ring/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ring",
	Short:   "ring - a lightweight single-binary container orchestrator",
	Long:    `ring schedules Docker deployments against one server and reconciles them on a loop.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"ring version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("context", "", "Context to use (defaults to config.toml's current_context)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(deploymentCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(namespaceCmd)
	rootCmd.AddCommand(nodeCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// contextName resolves the context a command should operate against: the
// --context flag if set, otherwise config.toml's current_context.
func contextName(cmd *cobra.Command) (string, error) {
	if name, _ := cmd.Flags().GetString("context"); name != "" {
		return name, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	if cfg.CurrentContext == "" {
		return "", fmt.Errorf("no current context set, run `ring init` first")
	}
	return cfg.CurrentContext, nil
}

// newClient resolves the active context and builds an authenticated client
// for it. Every command other than `ring init` and `ring login` uses this.
func newClient(cmd *cobra.Command) (*client.Client, string, error) {
	name, err := contextName(cmd)
	if err != nil {
		return nil, "", err
	}
	cli, err := client.NewClientForContext(name)
	if err != nil {
		return nil, "", err
	}
	return cli, name, nil
}
