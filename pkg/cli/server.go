package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mchmarny/riskpulse/pkg/auth"
	"github.com/mchmarny/riskpulse/pkg/metrics"
	urfave "github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverMaxBodyBytes        = 32 << 20
	apiPrefix                 = "/api/"
)

var (
	portFlag = &urfave.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen (default: config server.port)",
	}

	hostFlag = &urfave.StringFlag{
		Name:  "host",
		Usage: "Address on which the server will listen",
		Value: "127.0.0.1",
	}

	serverCmd = &urfave.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the scoring HTTP API",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			portFlag,
			hostFlag,
		},
	}
)

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	port := cmd.Int(portFlag.Name)
	if port == 0 {
		port = cfg.Config.Server.Port
	}
	address := fmt.Sprintf("%s:%d", cmd.String(hostFlag.Name), port)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	a := &api{
		engine:  cfg.Engine,
		store:   store,
		seed:    cfg.Config.Seed,
		horizon: cfg.Config.HorizonMonths,
	}

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(a, verifier),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
			done <- syscall.SIGTERM
		}
	}()

	slog.Info("server started", "address", fmt.Sprintf("http://%s", address), "auth", verifier != nil)

	<-done

	sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

// newVerifier returns nil when auth is disabled or no users are configured.
func newVerifier(cfg *appConfig) (*auth.Verifier, error) {
	if cfg.Config.Auth.Disabled || len(cfg.Config.Auth.Users) == 0 {
		slog.Warn("API authentication disabled")
		return nil, nil
	}
	pepper, err := auth.GetPepper()
	if err != nil {
		return nil, fmt.Errorf("auth users configured but pepper unavailable: %w", err)
	}
	return auth.NewVerifier(cfg.Config.Auth.Users, pepper), nil
}

func makeRouter(a *api, v *auth.Verifier) http.Handler {
	mux := http.NewServeMux()

	// Ops
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	// Scoring API
	mux.HandleFunc("GET /api/v1/features", a.featuresHandler)
	mux.HandleFunc("POST /api/v1/score", a.scoreHandler)
	mux.HandleFunc("POST /api/v1/explain", a.explainHandler)
	mux.HandleFunc("GET /api/v1/tier", a.tierHandler)
	mux.HandleFunc("POST /api/v1/check", a.checkHandler)
	mux.HandleFunc("POST /api/v1/batch", a.batchHandler)
	mux.HandleFunc("POST /api/v1/roi", a.roiHandler)

	// Action log
	mux.HandleFunc("POST /api/v1/actions", a.addActionHandler)
	mux.HandleFunc("GET /api/v1/actions", a.listActionsHandler)
	mux.HandleFunc("GET /api/v1/actions/{id}", a.getActionHandler)

	return metrics.Middleware(logRequests(basicAuth(v, mux)))
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// basicAuth guards the API routes. A nil verifier lets everything through.
func basicAuth(v *auth.Verifier, next http.Handler) http.Handler {
	if v == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, apiPrefix) {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !v.Verify(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="riskpulse"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
