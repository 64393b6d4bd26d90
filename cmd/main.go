package main

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/richard-senior/rocketrun/internal/config"
	"github.com/richard-senior/rocketrun/internal/handlers"
	"github.com/richard-senior/rocketrun/internal/highscore"
	"github.com/richard-senior/rocketrun/internal/leaderboard"
	"github.com/richard-senior/rocketrun/internal/live"
	"github.com/richard-senior/rocketrun/internal/logger"
)

// GracefulShutdown handles the graceful shutdown of the server
func GracefulShutdown(server *http.Server, quit <-chan os.Signal, done chan<- bool) {
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exiting")
	close(done)
}

// statusRecorder remembers the status code for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack is needed for the websocket upgrade
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// request logging middleware, wrapped by CORS in main
func baseHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func main() {
	// Load configuration
	if err := config.Load(os.Args[1:]); err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	cfg := config.Get()

	level, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		logger.Warn("Unknown log level %q, using INFO", cfg.LogLevel)
	}
	if cfg.Debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)

	opts := handlers.Options{
		Mode:         cfg.Mode,
		StoreTimeout: config.GetStoreTimeout(),
	}

	switch cfg.Mode {
	case config.ModeHighscore:
		opts.Hub = live.NewHub()
		opts.Highscore = highscore.New(opts.Hub.Broadcast)
	case config.ModeLeaderboard:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := leaderboard.Open(ctx, cfg)
		if err != nil {
			cancel()
			logger.Fatal("Failed to open leaderboard store: %v", err)
		}
		// ensure the schema once at startup
		if err := store.Init(ctx); err != nil {
			cancel()
			logger.Fatal("Failed to initialise leaderboard store: %v", err)
		}
		cancel()
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close leaderboard store: %v", err)
			}
		}()
		opts.Leaderboard = store
	}

	api := handlers.NewAPI(opts)
	serverPort := config.GetPortString()

	mux := http.NewServeMux()

	// Add static file server - this needs to come before other routes
	fs := http.FileServer(http.Dir(cfg.StaticDir))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	mux.HandleFunc("/", handlers.IndexHandler(cfg.TemplateDir, cfg.Mode))
	mux.HandleFunc("/qr", handlers.QRCodeHandler(serverPort))
	mux.HandleFunc("/api/", api.HandleAPI) // Note the trailing slash
	if cfg.Mode == config.ModeHighscore {
		mux.HandleFunc("/ws/highscore", api.LiveHandler)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: config.GetAllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		Debug:          cfg.Debug,
	})

	server := &http.Server{
		Addr:              "0.0.0.0:" + serverPort,
		Handler:           c.Handler(baseHandler(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// add shutdown handler
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	done := make(chan bool)
	go GracefulShutdown(server, quit, done)

	logger.Info("rocketrun (%s mode) is ready to handle requests at %s", cfg.Mode, serverPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Could not listen on %s: %v", serverPort, err)
	}
	<-done
}
