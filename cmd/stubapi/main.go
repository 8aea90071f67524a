package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Angad-2002/Darwix-AI/internal/applog"
	"github.com/Angad-2002/Darwix-AI/internal/stubapi"
)

func main() {
	cfg, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	log := applog.Default()
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler: stubapi.NewRouter(cfg),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		applog.Infof(log, "stub API listening on http://%s/api", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(fmt.Sprintf("http listen and serve: %v", err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.Errorf(log, "shutdown server: %v", err)
	}
}

func parseArgs() (stubapi.Config, error) {
	var (
		port      = flag.Int("port", 8000, "HTTP port to listen on")
		delay     = flag.Duration("delay", 0, "Simulated transcription processing time")
		formatted = flag.Bool("formatted-duration", false, "Emit duration as MM:SS.mmm with duration_seconds")
		quiet     = flag.Bool("quiet", false, "Disable request logging")
	)
	flag.Parse()

	if *port < 1 || *port > 65535 {
		return stubapi.Config{}, fmt.Errorf("port must be between 1 and 65535")
	}
	if *delay < 0 {
		return stubapi.Config{}, fmt.Errorf("delay must not be negative")
	}

	return stubapi.Config{
		Port:              *port,
		Delay:             *delay,
		FormattedDuration: *formatted,
		AccessLog:         !*quiet,
	}, nil
}
