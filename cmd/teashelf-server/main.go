package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"teashelf/internal/api"
	"teashelf/internal/browser"
	"teashelf/internal/config"
	"teashelf/internal/scrape"
	applog "teashelf/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logCloser, err := applog.Setup(applog.Options{
		Name:       config.AppName,
		Dir:        cfg.Log.Dir,
		Debug:      cfg.Debug,
		Console:    cfg.Log.Console,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		log.Fatalf("setting up logging: %v", err)
	}
	defer logCloser.Close()

	log.Infof("%s starting (go %s, %s/%s)", config.AppName, runtime.Version(), runtime.GOOS, runtime.GOARCH)

	session := browser.NewSession(browser.SessionConfig{
		Headless:     cfg.Browser.Headless,
		NoSandbox:    cfg.Browser.NoSandbox,
		ChromeBin:    cfg.Browser.ChromeBin,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
	})
	fetcher := browser.NewFetcher(browser.FetcherConfig{
		UserAgent:   cfg.Scrape.UserAgent,
		NavTimeout:  cfg.Scrape.NavTimeoutDuration(),
		EvalTimeout: cfg.Scrape.EvalTimeoutDuration(),
	})
	importer := scrape.NewImporter(session, fetcher, scrape.NewExtractor())

	e := api.New(api.ServerConfig{
		Debug:        cfg.Debug,
		AllowOrigins: cfg.Server.AllowOrigins,
	}, api.NewHandler(importer, session))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Browser.Prewarm {
		go session.Warm(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.ListenPort)
		log.Infof("http server listening on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http server shutdown was not clean")
		}
		session.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
	log.Info("stopped")
}
