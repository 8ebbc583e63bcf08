package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/pipe-fittings/cmdconfig"
)

const (
	flagConfig    = "config"
	flagInput     = "input"
	flagOutput    = "output"
	flagFitOutput = "fit-output"
	flagFit       = "fit"
)

var exitCode int

// Build the cobra command that handles our command line tool.
func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "churn-dataset [flags]",
		Short: "Build a processed churn dataset from raw customer files",
		Long: `Load the raw customer files, fit the configured transform steps and write the processed dataset.

Flags override the values in the config file.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = run(cmd, "")
		},
	}

	addPipelineFlags(rootCmd)

	rootCmd.AddCommand(applyCmd())

	return rootCmd
}

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply --fit FILE [flags]",
		Short: "Replay a fit record on new raw files",
		Long: `Load the raw customer files and apply the parameters of a previously written fit record,
rather than fitting the steps again.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fitPath := viper.GetString(flagFit)
			if fitPath == "" {
				fmt.Fprintln(os.Stderr, "Error: --fit must be specified")
				exitCode = 1
				return
			}
			exitCode = run(cmd, fitPath)
		},
	}

	addPipelineFlags(cmd).
		AddStringFlag(flagFit, "", "Fit record written by a previous run")

	return cmd
}

func addPipelineFlags(cmd *cobra.Command) *cmdconfig.CmdBuilder {
	return cmdconfig.OnCmd(cmd).
		AddStringFlag(flagConfig, "", "Config file (.hcl or .json)").
		AddStringArrayFlag(flagInput, nil, "Raw input file or directory, may be repeated").
		AddStringFlag(flagOutput, "", "Output dataset path").
		AddStringFlag(flagFitOutput, "", "Path the fit record is written to")
}

// run builds and runs the pipeline, returning the process exit code
func run(cmd *cobra.Command, fitPath string) int {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	res, err := runPipeline(ctx, cfg, fitPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows, %d columns to %s\n", res.RowCount, res.ColumnCount, cfg.Output.Path)
	fmt.Fprint(cmd.OutOrStdout(), res.Timing.String())
	return 0
}

func runPipeline(ctx context.Context, cfg *config.Config, fitPath string) (*pipeline.Result, error) {
	var opts []pipeline.PipelineOption
	if fitPath != "" {
		rec, err := fit.Load(fitPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithFitRecord(rec))
	}

	p, err := pipeline.NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	if path := viper.GetString(flagConfig); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	inputs, err := cmd.Flags().GetStringArray(flagInput)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(inputs, viper.GetString(flagOutput), viper.GetString(flagFitOutput)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Execute() int {
	rootCmd := rootCommand()
	if err := rootCmd.Execute(); err != nil {
		exitCode = 1
	}
	return exitCode
}
