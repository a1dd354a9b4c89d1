// Command ghgledger runs the greenhouse gas emissions ledger.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ghgledger/internal/platform/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "ghgledger",
		Short:        "Greenhouse gas emissions ledger",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres URL; empty runs on in-memory stores")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	mustBind(v, rootCmd, "database.url", "database-url")
	mustBind(v, rootCmd, "log_level", "log-level")

	load := func() (config.Server, error) {
		return config.Load(v, configFile)
	}
	rootCmd.AddCommand(newServeCmd(v, load))
	rootCmd.AddCommand(newMigrateCmd(load))
	return rootCmd
}

func mustBind(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}
