package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gograde/app"
	"gograde/domain/stage"
	"gograde/internal"
	"gograde/internal/config"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configFile string
	logLevel   string
	input      string
	noRender   bool
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "gograde",
		Short: "Statistical pipeline for student performance data",
		Long: `gograde cleans and encodes a student performance table, then runs
descriptive statistics, a chi-square independence test, a one-way ANOVA with
Tukey HSD post-hoc contrasts, and an OLS regression with diagnostics.

Configuration is read from .env, GOGRADE_* environment variables and an
optional YAML file (--config).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.input, "input", "", "raw dataset path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flags.noRender, "no-render", false, "skip figure rendering")

	rootCmd.AddCommand(
		newStagesCmd(&flags, "run", "Run every stage: clean, encode, describe, chisquare, anova, regression",
			stage.DefaultPlan()),
		newStagesCmd(&flags, "clean", "Validate, clean and encode the raw dataset into the artifact",
			stage.DefaultPlan().Only(stage.StageClean, stage.StageEncode)),
		newStagesCmd(&flags, "describe", "Summarize numeric columns of the artifact",
			stage.DefaultPlan().Only(stage.StageDescribe)),
		newStagesCmd(&flags, "chisquare", "Chi-square test of independence on the artifact",
			stage.DefaultPlan().Only(stage.StageChiSquare)),
		newStagesCmd(&flags, "anova", "One-way ANOVA with Tukey HSD post-hoc on the artifact",
			stage.DefaultPlan().Only(stage.StageANOVA)),
		newStagesCmd(&flags, "regress", "OLS regression with diagnostics on the artifact",
			stage.DefaultPlan().Only(stage.StageRegression)),
		newConfigCmd(&flags),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(flags *globalFlags) (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, nil, err
	}
	if flags.input != "" {
		cfg.Paths.Input = flags.input
	}
	if flags.noRender {
		cfg.Render.Enabled = false
	}
	level := cfg.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	return cfg, internal.NewLogger(internal.ParseLevel(level), os.Stderr), nil
}

func newStagesCmd(flags *globalFlags, use, short string, plan *stage.StagePlan) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}

			res, runErr := app.NewPipeline(cfg, logger).RunPlan(cmd.Context(), plan)
			if res != nil {
				app.NewPrinter(cmd.OutOrStdout()).Print(res)
			}
			return runErr
		},
	}
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
