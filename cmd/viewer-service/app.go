package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/config"
	"github.com/cuongbtq/estimate-viewer/internal/generator"
	"github.com/cuongbtq/estimate-viewer/internal/prompt"
	"github.com/cuongbtq/estimate-viewer/internal/worker"
	"github.com/cuongbtq/estimate-viewer/internal/worker/storage"
	"github.com/cuongbtq/estimate-viewer/internal/workspace"
	"github.com/cuongbtq/estimate-viewer/shared/logger"
	"github.com/cuongbtq/estimate-viewer/shared/rabbitmq"
)

// app holds the components shared by every command
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	worker  *worker.Worker
	library *workspace.Library
	webRoot string
	closers []io.Closer
}

// loadConfig reads and validates the configuration file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires the workspace, prompt assembler, generator and worker
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: appLogger, closers: []io.Closer{appLogger}}

	ws, err := workspace.New(cfg.Workspace.Root, cfg.Workspace.ProjectsDir, cfg.Workspace.InputFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.webRoot = cfg.Workspace.WebRoot
	if !filepath.IsAbs(a.webRoot) {
		a.webRoot = filepath.Join(ws.Root, a.webRoot)
	}

	sources := make([]workspace.Source, 0, len(cfg.Workspace.MarkdownRoots))
	for _, r := range cfg.Workspace.MarkdownRoots {
		sources = append(sources, workspace.Source{Label: r.Label, Dir: r.Dir})
	}
	a.library, err = workspace.NewLibrary(ws.Root, sources)
	if err != nil {
		a.Close()
		return nil, err
	}

	assembler, err := prompt.NewAssembler(prompt.Config{
		Root:              ws.Root,
		SharedReferences:  cfg.Prompt.SharedReferences,
		References:        cfg.Prompt.References,
		MaxReferenceChars: cfg.Prompt.MaxReferenceChars,
		MaxInputChars:     cfg.Prompt.MaxInputChars,
		TruncationMarker:  cfg.Prompt.TruncationMarker,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize prompt assembler: %w", err)
	}

	runner, err := initRunner(ctx, &cfg.Generator, ws.Root)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	if c, ok := runner.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	var publisher worker.EventPublisher
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		a.closers = append(a.closers, rabbitClient)
		publisher = rabbitClient
	}

	a.worker = worker.NewWorker(&worker.Config{
		Logger:     appLogger.Logger,
		Store:      storage.NewStore(cfg.Jobs.MaxRetained),
		Workspace:  ws,
		Prompts:    assembler,
		Runner:     runner,
		Publisher:  publisher,
		Providers:  cfg.Jobs.Providers,
		JobTimeout: cfg.Generator.JobTimeout(),
	})

	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initRunner builds the configured estimate generator
func initRunner(ctx context.Context, cfg *config.GeneratorConfig, root string) (generator.Runner, error) {
	switch cfg.Kind {
	case config.GeneratorGemini:
		return generator.NewGeminiRunner(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Temperature)
	case config.GeneratorCLI, "":
		dir := cfg.Dir
		if dir == "" {
			dir = root
		}
		return generator.NewCLIRunner(cfg.Command, cfg.Args, dir), nil
	default:
		return nil, fmt.Errorf("unknown generator kind: %s", cfg.Kind)
	}
}

// initRabbitMQ initializes the RabbitMQ event publisher
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		RoutingKeyPrefix:   cfg.RoutingKeyPrefix,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}
