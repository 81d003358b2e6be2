package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/torneo/internal/board"
	"github.com/gosuda/torneo/internal/clock"
	"github.com/gosuda/torneo/internal/config"
	"github.com/gosuda/torneo/internal/engine"
	"github.com/gosuda/torneo/internal/gateway"
	torneodiscord "github.com/gosuda/torneo/internal/gateway/discord"
	torneoslack "github.com/gosuda/torneo/internal/gateway/slack"
	"github.com/gosuda/torneo/internal/ranking"
	"github.com/gosuda/torneo/internal/registry"
	"github.com/gosuda/torneo/internal/room"
	"github.com/gosuda/torneo/internal/roster"
	"github.com/gosuda/torneo/internal/server"
	"github.com/gosuda/torneo/internal/store"
	"github.com/gosuda/torneo/internal/store/file"
	redisstore "github.com/gosuda/torneo/internal/store/redis"
	"github.com/gosuda/torneo/internal/view"
)

const (
	// loopQueue bounds the number of pending tasks on the engine loop.
	loopQueue = 256
	// gatewayQueue bounds role and notice calls waiting for the platform.
	gatewayQueue = 1024
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

//nolint:funlen // wiring
func run() error {
	// Initialize structured logging from environment.
	level, parseErr := zerolog.ParseLevel(os.Getenv("TORNEO_LOG_LEVEL"))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("TORNEO_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Open the snapshot backend.
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	snapshots := store.New(backend)

	tenants := registry.New(snapshots)
	if err := tenants.Load(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	ledger := ranking.New(snapshots)
	if err := ledger.Load(ctx); err != nil {
		return fmt.Errorf("load ranking: %w", err)
	}

	ids, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return fmt.Errorf("room ids: %w", err)
	}

	// Platform gateway.
	var (
		gw      gateway.Gateway
		discord *discordgo.Session
		discAPI *torneodiscord.Session
		slack   *slacklib.Client
	)
	switch cfg.Platform {
	case config.PlatformDiscord:
		discord, err = discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			return fmt.Errorf("discord session: %w", err)
		}
		discAPI = torneodiscord.NewSession(discord)
		gw = torneodiscord.NewGateway(discAPI)
	case config.PlatformSlack:
		slack = slacklib.New(cfg.Slack.BotToken)
		gw = torneoslack.NewGateway(slack)
	}
	gw = gateway.NewThrottled(gw, cfg.Gateway.RPS, cfg.Gateway.Burst)
	queued := gateway.NewQueued(gw, gatewayQueue)

	// Core services.
	now := clock.In(cfg.Rooms.Location)
	views := view.New(tenants, ledger, queued)
	rosterSvc := roster.New(tenants, ledger, queued, views)
	rooms := room.New(tenants, queued, views, now, ids, room.Config{
		Role:         cfg.Rooms.Role,
		ReminderLead: cfg.Rooms.ReminderLead,
	})
	boards := board.New(tenants, queued, now)
	eng := engine.New(engine.NewLoop(loopQueue), tenants, ledger, rosterSvc, rooms, views, boards)

	var slackHandler *torneoslack.Handler
	if slack != nil {
		slackHandler = torneoslack.NewHandler(cfg.Slack.SigningSecret, slack, eng, cfg.Slack.Admins)
	}
	srv := server.New(ctx, cfg, eng, slackHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return queued.Run(gctx)
	})
	g.Go(func() error {
		return eng.Run(gctx)
	})

	n, err := eng.Reattach(gctx)
	if err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("reattach rooms: %w", err)
	}
	log.Info().Int("rooms", n).Msg("rooms reattached")

	if discord != nil {
		x := torneodiscord.NewInteractions(discAPI, eng)
		if err := torneodiscord.Connect(gctx, discord, x); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		defer func() {
			if closeErr := discord.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("discord close")
			}
		}()
	}

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Str("platform", cfg.Platform).Msg("starting server")
		return srv.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info().Msg("stopped")
	return nil
}

// openBackend returns the configured snapshot backend and its release func.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		b, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {
			if err := b.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}, nil
	default:
		b, err := file.New(cfg.Store.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	}
}
