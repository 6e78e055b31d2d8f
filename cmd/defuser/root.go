package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AaronLay10/DefusalEngine/internal/version"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:           "defuser",
	Short:         "Defuse procedurally generated bombs from the terminal",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if viper.GetBool("verbose") {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		log, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging (DEFUSAL_VERBOSE)")
	rootCmd.PersistentFlags().Int("level", 1, "level to play (DEFUSAL_LEVEL)")
	rootCmd.PersistentFlags().String("pack", "main_campaign", "level pack (DEFUSAL_PACK)")
	rootCmd.PersistentFlags().Uint64("seed", 0, "random seed, 0 picks one (DEFUSAL_SEED)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("level", rootCmd.PersistentFlags().Lookup("level"))
	_ = viper.BindPFlag("pack", rootCmd.PersistentFlags().Lookup("pack"))
	_ = viper.BindPFlag("seed", rootCmd.PersistentFlags().Lookup("seed"))

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(planCmd)
}

func initConfig() {
	viper.SetEnvPrefix("DEFUSAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
