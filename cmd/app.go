package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/config"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/notify"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/session"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/store"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/templates"
)

// app holds the collaborators built from configuration for one command
type app struct {
	cfg       *config.Config
	client    *llm.Client
	store     store.Store
	publisher notify.Publisher
	manager   *session.Manager
}

// effectiveConfig applies command line overrides on top of file and
// environment settings.
func effectiveConfig() (*config.Config, error) {
	cfg := config.Effective()
	if baseURLFlag != "" {
		cfg.LLMBaseURL = baseURLFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp opens the store and publisher and wires a session manager
func newApp() (*app, error) {
	cfg, err := effectiveConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store())
	if err != nil {
		return nil, fmt.Errorf("failed to open chat store: %w", err)
	}

	pub, err := notify.New(cfg.Notify(), logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to connect notifier: %w", err)
	}

	registry := templates.NewRegistry(config.TemplatePaths(), logger)
	if err := registry.Refresh(); err != nil {
		logger.Warn("failed to load templates", zap.Error(err))
	}

	client := llm.NewClient(cfg.LLM(), logger)

	return &app{
		cfg:       cfg,
		client:    client,
		store:     st,
		publisher: pub,
		manager: session.NewManager(session.Options{
			Store:          st,
			Templates:      registry,
			Transport:      client,
			Dispatcher:     cfg.Dispatcher(),
			Publisher:      pub,
			MaxInputLength: cfg.MaxInputLength,
			Logger:         logger,
		}),
	}, nil
}

// open resumes chatFlag, starts a chat from templateFlag, or returns nil
// when neither is set.
func (a *app) open(ctx context.Context, initial string) (*session.Session, error) {
	switch {
	case chatFlag != "":
		return a.manager.Resume(ctx, chatFlag)
	case templateFlag != "":
		return a.manager.Start(ctx, session.StartOptions{Template: templateFlag, InitialMessage: initial})
	case initial != "":
		return a.manager.Start(ctx, session.StartOptions{InitialMessage: initial})
	}
	return nil, nil
}

func (a *app) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
