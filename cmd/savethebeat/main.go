package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/renatooliveira/savethebeat/internal/adapter/cache"
	oauthadapter "github.com/renatooliveira/savethebeat/internal/adapter/oauth"
	slackadapter "github.com/renatooliveira/savethebeat/internal/adapter/slack"
	spotifyadapter "github.com/renatooliveira/savethebeat/internal/adapter/spotify"
	"github.com/renatooliveira/savethebeat/internal/config"
	httptransport "github.com/renatooliveira/savethebeat/internal/http"
	"github.com/renatooliveira/savethebeat/internal/http/handler"
	"github.com/renatooliveira/savethebeat/internal/repository"
	"github.com/renatooliveira/savethebeat/internal/server"
	"github.com/renatooliveira/savethebeat/internal/service"
	"github.com/renatooliveira/savethebeat/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newRedisClient,
			newUserAuthRepository,
			newSaveActionRepository,
			newConnectStateStore,
			newTokenExchanger,
			newSlackClient,
			newSpotifyClient,
			newTokenManager,
			newMentionService,
			newConnectService,
			newSlackHandler,
			newSpotifyHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newUserAuthRepository(pool *pgxpool.Pool, node *snowflake.Node) repository.UserAuthRepository {
	return repository.NewPostgresUserAuthRepo(pool, node)
}

func newSaveActionRepository(pool *pgxpool.Pool, node *snowflake.Node) repository.SaveActionRepository {
	return repository.NewPostgresSaveActionRepo(pool, node)
}

func newConnectStateStore(client redis.UniversalClient, cfg config.Config) repository.ConnectStateStore {
	return cacheadapter.NewRedisStateStore(client, cfg.ConnectStateTTL)
}

func newTokenExchanger(cfg config.Config) oauthadapter.TokenExchanger {
	return oauthadapter.NewSpotifyExchanger(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI)
}

func newSlackClient(cfg config.Config) slackadapter.Client {
	return slackadapter.NewAPIClient(cfg.SlackBotToken)
}

func newSpotifyClient() spotifyadapter.Client {
	return spotifyadapter.NewHTTPClient(nil, "")
}

func newTokenManager(users repository.UserAuthRepository, exchanger oauthadapter.TokenExchanger, logger *zap.Logger) *service.TokenManager {
	return service.NewTokenManager(users, exchanger, logger)
}

func newMentionService(
	chat slackadapter.Client,
	music spotifyadapter.Client,
	tokens *service.TokenManager,
	users repository.UserAuthRepository,
	ledger repository.SaveActionRepository,
	cfg config.Config,
	logger *zap.Logger,
) *service.MentionService {
	return service.NewMentionService(chat, music, tokens, users, ledger, cfg.BaseURL, logger)
}

func newConnectService(
	states repository.ConnectStateStore,
	exchanger oauthadapter.TokenExchanger,
	music spotifyadapter.Client,
	users repository.UserAuthRepository,
	tokens *service.TokenManager,
	logger *zap.Logger,
) *service.ConnectService {
	return service.NewConnectService(states, exchanger, music, users, tokens, logger)
}

func newSlackHandler(cfg config.Config, mentions *service.MentionService, logger *zap.Logger) *handler.SlackHandler {
	return handler.NewSlackHandler(cfg.SlackSigningSecret, mentions, logger)
}

func newSpotifyHandler(connect *service.ConnectService, logger *zap.Logger) *handler.SpotifyHandler {
	return handler.NewSpotifyHandler(connect, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
