package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yigit/campushub/internal/bootstrap"
	"github.com/yigit/campushub/internal/pkg/logger"
)

const programName = "campusctl"

var configFile string

type depsKey struct{}

// depsFromContext returns the dependencies built by the root pre-run hook
func depsFromContext(ctx context.Context) *bootstrap.Dependencies {
	deps, _ := ctx.Value(depsKey{}).(*bootstrap.Dependencies)
	return deps
}

// printJSON writes v to stdout, indented
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "CampusHub operator commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", bootstrap.DefaultConfigPath, "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		deps, err := bootstrap.BuildDependencies(cmd.Context(), cfg, lgr)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), depsKey{}, deps))
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if deps := depsFromContext(cmd.Context()); deps != nil {
			return deps.Close()
		}
		return nil
	}

	rootCmd.AddCommand(reconcileCommand())
	rootCmd.AddCommand(expireCommand())
	rootCmd.AddCommand(chainCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Str("component", programName).Msg("Command failed")
		os.Exit(1)
	}
}
