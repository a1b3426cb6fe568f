package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one estimate and wait for it",
	Long:  "Runs a single estimate job for a project and provider in this process, then prints where the result was written.",
	RunE:  runGenerate,
}

var (
	generateProject  string
	generateProvider string
)

func init() {
	generateCmd.Flags().StringVarP(&generateProject, "project", "p", "", "Project directory name under the projects dir (required)")
	generateCmd.Flags().StringVar(&generateProvider, "provider", "", "Target provider, e.g. aws (required)")

	if err := generateCmd.MarkFlagRequired("project"); err != nil {
		panic(fmt.Sprintf("failed to mark project flag as required: %v", err))
	}
	if err := generateCmd.MarkFlagRequired("provider"); err != nil {
		panic(fmt.Sprintf("failed to mark provider flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.worker.Submit(ctx, generateProject, generateProvider)
	if err != nil {
		return err
	}

	a.logger.Info("Generating estimate",
		slog.String("job_id", result.Job.ID),
		slog.String("project", result.Job.Project),
		slog.String("provider", result.Job.Provider),
	)

	job, err := a.worker.Await(ctx, result.Job.ID, 500*time.Millisecond)
	if err != nil {
		return err
	}

	if job.Status == domain.JobStatusFailed {
		return fmt.Errorf("estimate failed: %s", *job.Error)
	}

	fmt.Fprintln(cmd.OutOrStdout(), *job.OutputPath)
	return nil
}
