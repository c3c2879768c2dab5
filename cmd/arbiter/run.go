package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"buzzquiz/arbiter/internal/answer"
	"buzzquiz/arbiter/internal/api"
	"buzzquiz/arbiter/internal/arbiter"
	"buzzquiz/arbiter/internal/config"
	"buzzquiz/arbiter/internal/device"
	"buzzquiz/arbiter/internal/embed"
	"buzzquiz/arbiter/internal/events"
	"buzzquiz/arbiter/internal/floor"
	"buzzquiz/arbiter/internal/judge"
	"buzzquiz/arbiter/internal/logging"
	"buzzquiz/arbiter/internal/quiz"
	"buzzquiz/arbiter/internal/status"
	"buzzquiz/arbiter/internal/stt"
)

// errFinished stops the run group once every question has been played.
var errFinished = errors.New("quiz finished")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the quiz session (default)",
	Args:  cobra.NoArgs,
	RunE:  runQuiz,
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()

	port, err := device.Discover(cfg.Device.Port)
	if err != nil {
		log.Error("controller not found", zap.Error(err))
		return err
	}
	link, err := device.OpenSerial(port, cfg.Device.Baud, log)
	if err != nil {
		log.Error("controller unavailable", zap.Error(err))
		return err
	}
	defer link.Close()

	journal := events.NewStore()
	printer := status.NewPrinter(cmd.OutOrStdout())
	printer.Verbose, _ = cmd.Flags().GetBool("verbose")
	printer.Attach(journal)

	j := judge.New(newEmbedder(cfg, log), cfg.Judge.RelevanceThreshold, cfg.Judge.DuplicateThreshold, log)
	arb := arbiter.New(link, floor.New(cfg.Quiz.FirstID, cfg.Quiz.Contestants), journal, log)
	session := answer.New(link, newTranscriber(cfg, log), j, arb, journal, cfg.Capture.Timeout, log)
	ctrl := quiz.New(quiz.Options{
		Questions:     cfg.Quiz.Questions,
		Quota:         cfg.Quiz.Quota,
		QuestionDelay: cfg.Quiz.QuestionDelay,
		RoundPause:    cfg.Quiz.RoundPause,
	}, arb, session, j, link, journal, log)

	probes := api.NewHandlers(journal)
	hs := health.NewServer()
	var grpcListener net.Listener
	if cfg.Server.GRPCAddr != "" {
		if grpcListener, err = net.Listen("tcp", cfg.Server.GRPCAddr); err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := arb.Run(gctx); err != nil {
			return fmt.Errorf("device link: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := ctrl.Run(gctx); err != nil {
			return err
		}
		return errFinished
	})
	serveProbes(gctx, g, cfg.Server.MetricsAddr, probes, log)
	if grpcListener != nil {
		serveGRPCHealth(gctx, g, grpcListener, hs, log)
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	probes.SetReady(true)
	log.Info("quiz started",
		zap.String("port", port),
		zap.Int("contestants", cfg.Quiz.Contestants),
		zap.Int("questions", len(cfg.Quiz.Questions)))

	err = g.Wait()
	probes.SetReady(false)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	switch {
	case errors.Is(err, errFinished):
		log.Info("quiz complete")
		return nil
	case ctx.Err() != nil:
		journal.Append("", events.SessionStopped, map[string]any{"reason": "interrupted"})
		log.Info("quiz interrupted")
		return nil
	default:
		journal.Append("", events.SessionStopped, map[string]any{"reason": err.Error()})
		log.Error("quiz aborted", zap.Error(err))
		return err
	}
}

func newEmbedder(cfg config.Config, log *zap.Logger) embed.Embedder {
	if cfg.Embedder.Kind == "local" {
		log.Warn("local embedder selected: "+embed.LocalCaveat, zap.Int("dim", cfg.Embedder.Dim))
		return embed.NewLocal(cfg.Embedder.Dim)
	}
	return embed.NewHTTP(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.APIKey, cfg.Embedder.Timeout)
}

func newTranscriber(cfg config.Config, log *zap.Logger) stt.Transcriber {
	if cfg.Capture.Source == "console" {
		return stt.NewConsole(os.Stdin, os.Stdout)
	}
	return stt.NewWebSocket(cfg.Capture.URL, cfg.Capture.Language, log)
}

// serveProbes exposes /healthz, /readyz, /metrics and the round journal on
// the metrics address until gctx ends.
func serveProbes(gctx context.Context, g *errgroup.Group, addr string, h *api.Handlers, log *zap.Logger) {
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(log, api.NewRouter(h)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		log.Info("probes/metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("probe server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

func logMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("http", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Duration("took", time.Since(start)))
	})
}

// serveGRPCHealth runs the standard gRPC health service on l until gctx ends.
func serveGRPCHealth(gctx context.Context, g *errgroup.Group, l net.Listener, hs *health.Server, log *zap.Logger) {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	g.Go(func() error {
		log.Info("grpc health listening", zap.String("addr", l.Addr().String()))
		return s.Serve(l)
	})
	g.Go(func() error {
		<-gctx.Done()
		hs.Shutdown()
		s.GracefulStop()
		return nil
	})
}
