package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"TechPulse/internal/domain/models"
	pkgch "TechPulse/pkg/clickhouse"
	applogger "TechPulse/pkg/logger"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// CHAnalysisStore appends completed analyses to ClickHouse and serves the
// most recent ones per symbol.
type CHAnalysisStore struct {
	db    dbtx
	table string
	l     *applogger.Logger
}

// NewCHAnalysisStore creates the store. A nil client yields nil, meaning the
// sink is disabled.
func NewCHAnalysisStore(ch *pkgch.Client, l *applogger.Logger) *CHAnalysisStore {
	if ch == nil {
		return nil
	}
	return &CHAnalysisStore{db: ch.DB(), table: ch.Database() + ".analyses", l: l}
}

// AnalysisSchema returns the DDL for the analyses table in the given database.
func AnalysisSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.analyses (
    id          String,
    created_at  DateTime64(3, 'UTC'),
    symbol      LowCardinality(String),
    timeframe   LowCardinality(String),
    sentiment   LowCardinality(String),
    confidence  Float64,
    indicators  String,
    summary     String
) ENGINE = MergeTree
PARTITION BY toYYYYMM(created_at)
ORDER BY (symbol, created_at, id)`, database),
	}
}

func (s *CHAnalysisStore) RecordAnalysis(ctx context.Context, a *models.Analysis) error {
	start := time.Now()
	indicators, err := json.Marshal(a.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators: %w", err)
	}

	q := fmt.Sprintf("INSERT INTO %s (id, created_at, symbol, timeframe, sentiment, confidence, indicators, summary) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q,
		a.ID,
		a.CreatedAt.UTC(),
		a.Symbol,
		a.Timeframe,
		string(a.Sentiment),
		a.Confidence,
		string(indicators),
		a.Summary,
	); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse insert analysis ok",
			applogger.String("id", a.ID),
			applogger.String("symbol", a.Symbol),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Recent returns up to limit analyses for symbol, newest first.
func (s *CHAnalysisStore) Recent(ctx context.Context, symbol string, limit int) ([]*models.Analysis, error) {
	q := fmt.Sprintf(`SELECT id, created_at, symbol, timeframe, sentiment, confidence, indicators, summary
        FROM %s
        WHERE symbol = ?
        ORDER BY created_at DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Analysis, 0, limit)
	for rows.Next() {
		var (
			a          models.Analysis
			sentiment  string
			indicators string
		)
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.Symbol, &a.Timeframe, &sentiment, &a.Confidence, &indicators, &a.Summary); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.Sentiment = models.Signal(sentiment)
		if err := json.Unmarshal([]byte(indicators), &a.Indicators); err != nil {
			return nil, fmt.Errorf("decode indicators for %s: %w", a.ID, err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *CHAnalysisStore) Close() error {
	return nil // Managed by pkg
}
