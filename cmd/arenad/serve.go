package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/groblegark/arena/internal/archive"
	"github.com/groblegark/arena/internal/config"
	"github.com/groblegark/arena/internal/events"
	"github.com/groblegark/arena/internal/game"
	"github.com/groblegark/arena/internal/idgen"
	"github.com/groblegark/arena/internal/lastgame"
	"github.com/groblegark/arena/internal/perms"
	"github.com/groblegark/arena/internal/rewards"
	"github.com/groblegark/arena/internal/server"
	"github.com/groblegark/arena/internal/stats"
	"github.com/groblegark/arena/internal/voice"
)

// busAlerter escalates collaborator failures as urgent broadcasts.
type busAlerter struct {
	notifier *events.Notifier
}

func (a *busAlerter) Alert(text string) {
	a.notifier.Custom(text, true)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one session round",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Permission lookup.
		lookup := perms.Empty()
		if cfg.PermsFile != "" {
			lookup, err = perms.Load(cfg.PermsFile)
			if err != nil {
				return err
			}
			logger.Info("permission file loaded", "path", cfg.PermsFile)
		}

		// Event bus.
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		notifier := events.NewNotifier(pub, cfg.GameCodeName, logger)
		controller := events.NewController(pub, cfg.GameCodeName, logger)

		// Voice bridge.
		origin := cfg.Origin
		if origin == "" {
			if origin, err = idgen.Generate(); err != nil {
				pub.Close()
				return err
			}
		}
		transport, err := voice.NewNATSTransport(cfg.NATSURL)
		if err != nil {
			pub.Close()
			return err
		}
		bridge, err := voice.New(transport, voice.Config{
			Origin:      origin,
			CallTimeout: cfg.VoiceCallTimeout,
		}, logger)
		if err != nil {
			transport.Close()
			pub.Close()
			return err
		}
		logger.Info("voice bridge ready", "origin", origin)

		// Last-game store, backed by JetStream when available.
		var lastGameStore interface {
			Record(id uuid.UUID, codeName string) error
			Lookup(id uuid.UUID) (string, error)
		}
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("arenad-lastgame"))
		if err != nil {
			bridge.Close()
			transport.Close()
			pub.Close()
			return err
		}
		if kv, err := lastgame.NewKV(nc, lastgame.DefaultTTL); err != nil {
			logger.Warn("jetstream unavailable, last-game records stay in-process", "err", err)
			lastGameStore = lastgame.NewMemory(lastgame.DefaultTTL)
		} else {
			lastGameStore = kv
		}

		// Statistics, optional.
		var statsSvc *stats.Service
		if cfg.DatabaseURL != "" {
			store, err := stats.Open(cfg.DatabaseURL)
			if err != nil {
				nc.Close()
				bridge.Close()
				transport.Close()
				pub.Close()
				return err
			}
			statsSvc = stats.NewService(store)
			logger.Info("statistics enabled")
		}

		rewardSvc := rewards.NewService(rewards.DefaultScheme(), pub, logger)

		// Round archive, optional.
		var destinations []archive.Destination
		if cfg.ArchiveDir != "" {
			destinations = append(destinations, archive.NewDirDestination(cfg.ArchiveDir))
			logger.Info("round archive directory enabled", "dir", cfg.ArchiveDir)
		}
		if cfg.ArchiveS3Bucket != "" {
			dest, err := archive.NewS3Destination(
				context.Background(),
				cfg.ArchiveS3Bucket,
				cfg.ArchiveS3Prefix,
				cfg.ArchiveS3Region,
				cfg.ArchiveS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 archive destination", "err", err)
			} else {
				destinations = append(destinations, dest)
				logger.Info("round archive S3 enabled", "bucket", cfg.ArchiveS3Bucket, "prefix", cfg.ArchiveS3Prefix)
			}
		}
		var archiver *archive.Archiver
		if len(destinations) > 0 {
			archiver = archive.NewArchiver(destinations, logger)
		}

		deps := game.Collaborators{
			Notifier: notifier,
			Perms:    lookup,
			Rewards:  rewardSvc,
			Voice:    bridge,
			LastGame: lastGameStore,
			Manager:  controller,
			Alerter:  &busAlerter{notifier: notifier},
		}
		if statsSvc != nil {
			deps.Stats = statsSvc
			deps.Achievements = statsSvc
		}

		var session *game.Session
		opts := game.Options{
			CodeName:        cfg.GameCodeName,
			Name:            cfg.GameName,
			Description:     cfg.GameDescription,
			FreeMode:        cfg.FreeMode,
			Countdown:       cfg.Countdown,
			ReconnectWindow: cfg.ReconnectWindow,
			VoiceLinked:     func(uuid.UUID) bool { return true },
			CountdownComplete: func() {
				if err := session.Start(); err != nil {
					logger.Warn("countdown start rejected", "err", err)
				}
			},
		}
		opts.OnTeardown = func() {
			if archiver == nil {
				return
			}
			if err := archiver.Archive(context.Background(), roundSummary(session)); err != nil {
				logger.Error("round archive failed", "err", err)
			}
		}

		session, err = game.NewSession(opts, deps, logger)
		if err != nil {
			return err
		}
		if err := session.Initialize(); err != nil {
			return err
		}

		// Fabric intake: player movement announced over the bus.
		var intakeCancel context.CancelFunc
		if fabricSub, err := events.NewNATSSubscriber(cfg.NATSURL); err != nil {
			logger.Error("failed to create fabric subscriber", "err", err)
		} else {
			intake := events.NewIntake(fabricSub, session, logger)
			var intakeCtx context.Context
			intakeCtx, intakeCancel = context.WithCancel(context.Background())
			go func() {
				if err := intake.Run(intakeCtx); err != nil && intakeCtx.Err() == nil {
					logger.Error("fabric intake error", "err", err)
				}
				fabricSub.Close()
			}()
			logger.Info("fabric intake started")
		}

		// Admin HTTP server.
		var statsReader server.StatsReader
		if statsSvc != nil {
			statsReader = statsSvc
		}
		arenaServer := server.NewArenaServer(session, statsReader, lastGameStore, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: arenaServer.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("session ready",
			"code_name", session.CodeName(),
			"free_mode", cfg.FreeMode,
			"http_addr", cfg.HTTPAddr,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if intakeCancel != nil {
			intakeCancel()
			logger.Info("fabric intake stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}

		bridge.Close()
		transport.Close()
		nc.Close()
		if statsSvc != nil {
			if err := statsSvc.Close(); err != nil {
				logger.Error("error closing statistics store", "err", err)
			}
		}
		if err := pub.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// roundSummary snapshots the finished session for the archive.
func roundSummary(sess *game.Session) *archive.RoundSummary {
	winners := sess.Winners()
	won := make(map[uuid.UUID]bool, len(winners))
	for _, w := range winners {
		won[w] = true
	}

	records := sess.RegisteredPlayers()
	players := make([]archive.PlayerSummary, 0, len(records))
	for id, rec := range records {
		players = append(players, archive.PlayerSummary{
			PlayerID:      id,
			Role:          string(rec.Role),
			PlayedSeconds: int64(rec.PlayedTime / time.Second),
			Coins:         rec.Coins,
			Winner:        won[id],
		})
	}

	return &archive.RoundSummary{
		CodeName:  sess.CodeName(),
		Name:      sess.Name(),
		StartedAt: sess.StartedAt(),
		EndedAt:   time.Now().UTC(),
		Winners:   winners,
		Players:   players,
	}
}
