// Package cache memoizes raw OCR detections keyed by photo content, so
// re-running a batch against the same photos skips the expensive OCR call.
// It stores detections only, never parsed invoices or match results.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jchiu-fusion/mpn-matcher-web/internal/ocr"
)

const schema = `
CREATE TABLE IF NOT EXISTS ocr_detections (
	content_hash TEXT PRIMARY KEY,
	detections   TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
`

// Store is a sqlite-backed detection cache.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the cache database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	logger.Info("ocr cache ready", "path", path)
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the cached detections for a content hash, or (nil, false).
func (s *Store) Get(ctx context.Context, contentHash string) ([]ocr.Detection, bool) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT detections FROM ocr_detections WHERE content_hash = ?`, contentHash).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("ocr cache read failed", "hash", contentHash, "error", err)
		return nil, false
	}
	var dets []ocr.Detection
	if err := json.Unmarshal([]byte(raw), &dets); err != nil {
		s.log.Warn("ocr cache entry corrupt", "hash", contentHash, "error", err)
		return nil, false
	}
	return dets, true
}

// Put stores detections for a content hash. Cache writes are best-effort.
func (s *Store) Put(ctx context.Context, contentHash string, dets []ocr.Detection) {
	raw, err := json.Marshal(dets)
	if err != nil {
		s.log.Warn("ocr cache encode failed", "hash", contentHash, "error", err)
		return
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ocr_detections (content_hash, detections, created_at) VALUES (?, ?, ?)`,
		contentHash, string(raw), time.Now().UTC())
	if err != nil {
		s.log.Warn("ocr cache write failed", "hash", contentHash, "error", err)
	}
}

// ContentHash hashes a photo's bytes; identical photos share cache entries
// regardless of filename.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Engine wraps an ocr.Engine with the store. A missing or failing cache
// never blocks detection; it only skips the memoization.
type Engine struct {
	inner ocr.Engine
	store *Store
	log   *slog.Logger
}

func NewEngine(inner ocr.Engine, store *Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{inner: inner, store: store, log: logger}
}

// Detect serves from the cache when the photo's content hash is known,
// otherwise delegates and stores the result.
func (e *Engine) Detect(ctx context.Context, path string) ([]ocr.Detection, error) {
	hash, err := ContentHash(path)
	if err != nil {
		e.log.Warn("content hash failed, bypassing cache", "path", path, "error", err)
		return e.inner.Detect(ctx, path)
	}
	if dets, ok := e.store.Get(ctx, hash); ok {
		e.log.Debug("ocr cache hit", "path", path, "hash", hash)
		return dets, nil
	}
	dets, err := e.inner.Detect(ctx, path)
	if err != nil {
		return nil, err
	}
	e.store.Put(ctx, hash, dets)
	return dets, nil
}
