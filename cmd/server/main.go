package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/kryptas/authgate/handler"
	"github.com/kryptas/authgate/pkg/auth"
	"github.com/kryptas/authgate/pkg/config"
	"github.com/kryptas/authgate/pkg/email"
	"github.com/kryptas/authgate/pkg/httpserver"
	"github.com/kryptas/authgate/pkg/logger"
	"github.com/kryptas/authgate/pkg/pg"
	"github.com/kryptas/authgate/pkg/ratelimit"
	"github.com/kryptas/authgate/pkg/redis"
	"github.com/kryptas/authgate/pkg/storage"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"10"`

	Log       logger.Config
	HTTP      httpserver.Config
	PG        pg.Config
	Email     email.Config
	RateLimit ratelimit.Config
}

func (c appConfig) production() bool {
	return c.Environment == "production"
}

// Token lifetimes are deliberately longer outside production so local
// sessions do not expire mid-development.
func (c appConfig) tokenTTLs() (access, refresh time.Duration) {
	if c.production() {
		return 24 * time.Hour, 7 * 24 * time.Hour
	}
	return 7 * 24 * time.Hour, 30 * 24 * time.Hour
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Log)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	accessTTL, refreshTTL := cfg.tokenTTLs()
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, accessTTL, refreshTTL)
	if err != nil {
		return err
	}
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	mailer := email.NewNotifier(newEmailSender(cfg, log), cfg.Email.FrontendURL)

	svc := auth.NewService(storage.NewPostgres(pool), hasher, tokens, mailer,
		auth.WithLogger(log),
	)

	limiter, probes, cleanup, err := newRateLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	probes = append(probes, pg.Healthcheck(pool))

	opts := []handler.Option{handler.WithLogger(log)}
	if cfg.production() {
		opts = append(opts, handler.WithProductionCookies())
	}
	opts = append(opts, providerAdapters(log)...)

	h := handler.New(svc, cfg.Email.FrontendURL, opts...)

	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, h.Router(limiter, probes...))
}

// newEmailSender picks Postmark when a server token is configured and
// falls back to the console sender otherwise.
func newEmailSender(cfg appConfig, log *slog.Logger) email.EmailSender {
	if cfg.Email.PostmarkServerToken != "" {
		sender, err := email.NewPostmarkClient(cfg.Email)
		if err == nil {
			return sender
		}
		log.Warn("postmark client unavailable, falling back to dev sender", logger.Error(err))
	}
	return email.NewDevSender(log)
}

// newRateLimiter backs the limiter with Redis in production and the
// in-process store otherwise.
func newRateLimiter(ctx context.Context, cfg appConfig, log *slog.Logger) (*ratelimit.Limiter, []func(context.Context) error, func(), error) {
	var (
		store   ratelimit.Store
		probes  []func(context.Context) error
		cleanup = func() {}
	)

	if cfg.production() {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return nil, nil, nil, err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		store = ratelimit.NewRedisStore(client)
		probes = append(probes, redis.Healthcheck(client))
		cleanup = func() { _ = client.Close() }
	} else {
		memStore := ratelimit.NewMemoryStore()
		store = memStore
		cleanup = memStore.Close
	}

	limiter, err := ratelimit.NewLimiter(store, cfg.RateLimit)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return limiter, probes, cleanup, nil
}

// providerAdapters registers every OAuth provider whose credentials are
// present; a missing pair just disables that provider.
func providerAdapters(log *slog.Logger) []handler.Option {
	var opts []handler.Option

	var googleCfg auth.GoogleConfig
	if err := config.Load(&googleCfg); err == nil {
		opts = append(opts, handler.WithProvider(auth.NewGoogleAdapter(googleCfg)))
	} else {
		log.Info("google oauth disabled", logger.Provider("google"))
	}

	var githubCfg auth.GitHubConfig
	if err := config.Load(&githubCfg); err == nil {
		opts = append(opts, handler.WithProvider(auth.NewGitHubAdapter(githubCfg)))
	} else {
		log.Info("github oauth disabled", logger.Provider("github"))
	}

	return opts
}
