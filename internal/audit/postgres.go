package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	"podcast-insights-go/internal/logger"
)

const insertEntry = `
INSERT INTO insight_audit
  (outcome, error_kind, episode_title, show_name, timestamp_seconds, transcript_origin, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// PostgresSink appends audit entries to an insight_audit table. Delivery runs
// in the background with bounded backoff; failures are logged and dropped so
// they can never alter a pipeline outcome.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit postgres: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit postgres: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Record(_ context.Context, e Entry) {
	// detached from the request context: the run has already responded
	go s.deliver(e)
}

func (s *PostgresSink) deliver(e Entry) {
	log := logger.Component("audit")

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	op := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := s.db.ExecContext(ctx, insertEntry,
			e.Outcome, e.ErrorKind, e.EpisodeTitle, e.ShowName,
			e.TimestampSeconds, e.TranscriptOrigin, e.DurationMs, e.CreatedAt)
		return err
	}
	if err := backoff.Retry(op, bo); err != nil {
		log.WithError(err).Warn("audit entry dropped")
	}
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
