package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authwidget"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/comments"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/contact"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/httpserver"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/identity"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/secrets"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/session"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides KIDSDEV_ADDR)")
	return cmd
}

// backends are the optional Google Cloud collaborators of the server.
type backends struct {
	sessions  httpserver.Sessions
	profiles  authwidget.ProfileSource
	comments  comments.Store
	publisher contact.Publisher
	closers   []func() error
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := expandSecrets(ctx, &cfg, logger); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	b := connectBackends(ctx, cfg, logger)
	defer b.close(logger)

	a, err := loadApp(ctx, cfg, logger, appOptions{metrics: metrics, profiles: b.profiles, remote: true})
	if err != nil {
		return err
	}
	defer a.close()
	go a.store.Refresh(ctx, a.sources, cfg.Content.RefreshInterval)

	returnTo, err := newReturnTo(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:      cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Site:         a.site,
		Sessions:     b.sessions,
		ReturnTo:     returnTo,
		Contact:      contact.NewService(b.publisher, logger.Named("contact"), metrics),
		Comments:     b.comments,
		DataFS:       a.dataFS(),
		Paths:        cfg.Paths,
		Metrics:      metrics,
		Logger:       logger,
		Ready: func(context.Context) error {
			if len(a.store.Items()) == 0 {
				return errors.New("content store is empty")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("site server listening",
		zap.String("addr", cfg.Server.Addr),
		zap.Int("items", a.report.Items),
		zap.Bool("auth_enabled", b.sessions != nil),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("site server stopped")
	return nil
}

// connectBackends wires Firebase Auth, Firestore and Pub/Sub when a project is configured.
// Every failure degrades to the in-process fallback.
func connectBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) *backends {
	b := &backends{}
	if !cfg.Firebase.Enabled() {
		logger.Info("firebase project not configured; sign-in disabled")
		return b
	}

	fb, err := identity.NewApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Warn("firebase unavailable; sign-in disabled", zap.Error(err))
		return b
	}
	b.sessions = identity.NewSessions(fb.Auth,
		identity.WithLifetime(cfg.Firebase.SessionLifetime),
		identity.WithSecureCookies(cfg.Session.CookieSecure),
	)

	if db, err := fb.Firestore(ctx); err != nil {
		logger.Warn("firestore unavailable; profiles and comments use fallbacks", zap.Error(err))
	} else {
		b.closers = append(b.closers, db.Close)
		b.profiles = identity.NewFirestoreProfiles(db)
		if store, err := comments.NewFirestoreStore(db); err == nil {
			b.comments = store
		}
	}

	if cfg.Contact.PubSubTopic != "" {
		var clientOpts []option.ClientOption
		if cfg.Firebase.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		}
		client, err := pubsub.NewClient(ctx, cfg.Firebase.ProjectID, clientOpts...)
		if err != nil {
			logger.Warn("pubsub unavailable; contact submissions are logged", zap.Error(err))
			return b
		}
		topic := client.Topic(cfg.Contact.PubSubTopic)
		b.closers = append(b.closers, func() error {
			topic.Stop()
			return client.Close()
		})
		if pub, err := contact.NewPubSubPublisher(topic); err == nil {
			b.publisher = pub
		}
	}
	return b
}

func (b *backends) close(logger *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("close backend failed", zap.Error(err))
		}
	}
}

// expandSecrets replaces secret:// references in the key settings with their values.
func expandSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	fields := []*string{&cfg.Session.HashKey, &cfg.Session.BlockKey, &cfg.Firebase.APIKey}
	needed := false
	for _, f := range fields {
		needed = needed || secrets.IsReference(*f)
	}
	if !needed {
		return nil
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(cfg.Firebase.ProjectID),
	}
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(cfg.Firebase.CredentialsFile)))
	}
	resolver := secrets.NewResolver(ctx, opts...)
	defer func() { _ = resolver.Close() }()
	if err := resolver.Expand(ctx, fields...); err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}
	return nil
}

func newReturnTo(cfg config.Config, logger *zap.Logger) (*session.ReturnTo, error) {
	hashKey := []byte(cfg.Session.HashKey)
	if len(hashKey) == 0 {
		logger.Warn("KIDSDEV_SESSION_HASH_KEY not set; using an ephemeral key")
		hashKey = session.GenerateKey(32)
	}
	rt, err := session.NewReturnTo(session.Config{
		HashKey:      hashKey,
		BlockKey:     []byte(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("init return-to cookie: %w", err)
	}
	return rt, nil
}
