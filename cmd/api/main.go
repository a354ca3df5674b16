package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"podcast-insights-go/internal/audio"
	"podcast-insights-go/internal/audit"
	"podcast-insights-go/internal/config"
	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/notion"
	"podcast-insights-go/internal/pipeline"
	"podcast-insights-go/internal/search"
	"podcast-insights-go/internal/server"
	"podcast-insights-go/internal/store"
	"podcast-insights-go/internal/summarizer"
	"podcast-insights-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "podcast-insights-go").Info("starting service")

	cfg := config.Load()
	if cfg.SearchBaseURL == "" {
		log.Fatal("SEARCH_API_URL not set")
	}

	searchClient := search.NewClient(cfg.SearchBaseURL, cfg.SearchAPIKey, cfg.SearchTimeout)
	resolver := search.NewResolver(searchClient, search.NewFeedResolver())

	fetcher := audio.NewFetcher(audio.ExecRunner{}, audio.Options{
		TempDir:          cfg.TempDir,
		DownloaderBinary: cfg.DownloaderBinary,
		TranscoderBinary: cfg.TranscoderBinary,
		DownloadTimeout:  cfg.DownloadTimeout,
		TrimTimeout:      cfg.TrimTimeout,
		MinBytes:         cfg.MinAudioBytes,
		DirectRange:      cfg.DirectRange,
	})

	transcriber := transcription.NewClient(cfg.TranscribeURL, cfg.TranscribeAPIKey, cfg.TranscribeModel, cfg.TranscribeTimeout)
	sum := summarizer.New(summarizer.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout))

	var sink audit.Sink = audit.LogSink{}
	if cfg.AuditDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pgSink, err := audit.NewPostgresSink(ctx, cfg.AuditDSN)
		cancel()
		if err != nil {
			// audit is best-effort; the service still runs without it
			log.WithError(err).Warn("postgres audit sink unavailable, falling back to log sink")
		} else {
			defer pgSink.Close()
			sink = pgSink
			log.Info("postgres audit sink connected")
		}
	}

	p := pipeline.New(resolver, fetcher, transcriber, sum, sink, cfg.WindowSeconds)
	writer := notion.NewWriter(cfg.NotionToken, cfg.NotionDatabaseID)
	recents := store.NewRecentStore(cfg.StoreCapacity)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      server.New(p, writer, recents).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // slowest path: full download + transcription
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", srv.Addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
