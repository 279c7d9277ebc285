package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postboard/middleware"
	"postboard/pkg/config"
	"postboard/pkg/handlers"
	"postboard/pkg/kv"
	post "postboard/pkg/posts"

	"github.com/gorilla/mux"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newLogger(env string) (*zap.Logger, error) {
	if env == config.EnvDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck
	lg := logger.Sugar()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := kv.Open(ctx, cfg.Store)
	cancel()
	if err != nil {
		lg.Fatalw("open store", "driver", cfg.Store.Driver, "error", err)
	}

	p := &handlers.PostHandler{
		Repo:         post.NewPostStoreRepository(store, cfg.UpdateRetries),
		Logger:       lg,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	r := mux.NewRouter()
	handlers.AddHandleFuncs(r, p)

	debug := cfg.Env == config.EnvDevelopment
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.AccessLog(lg, middleware.CORS(lg, cfg.CORSMaxAge, debug, r)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		lg.Infow("listening", "addr", cfg.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("ListenAndServe error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	lg.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	err = multierr.Append(srv.Shutdown(shutdownCtx), store.Close())
	if err != nil {
		lg.Errorw("shutdown", "error", err)
	}
}
