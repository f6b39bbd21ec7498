package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/rendis/algoscope/pkg/schema"
)

// Import records one catalog import.
type Import struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`
	CardCount  int       `json:"card_count"`
	Checksum   string    `json:"checksum"`
	ImportedAt time.Time `json:"imported_at"`
}

// LibSQLStore implements Store using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database. dbPath is a file path or a
// "file:" URI.
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	if dbPath == "" {
		return nil, schema.NewError(schema.ErrCodeStore, "database path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		dbPath = "file:" + dbPath
	}

	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "open libsql").WithCause(err)
	}
	db.SetMaxOpenConns(1)

	// Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	if err := runMigrations(ctx, s.db); err != nil {
		return schema.NewError(schema.ErrCodeStore, "migrate catalog database").WithCause(err)
	}
	return nil
}

// ImportCards replaces the stored catalog in a single transaction and records
// the import.
func (s *LibSQLStore) ImportCards(ctx context.Context, source string, cards []schema.ModelCard) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "begin import").WithCause(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM model_cards`); err != nil {
		return schema.NewError(schema.ErrCodeStore, "clear model_cards").WithCause(err)
	}

	digest := sha256.New()
	for i := range cards {
		body, err := json.Marshal(&cards[i])
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeStore, "marshal card %q", cards[i].ID).WithCause(err)
		}
		digest.Write(body)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO model_cards (id, position, body, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET position=excluded.position, body=excluded.body, updated_at=excluded.updated_at`,
			cards[i].ID, i, string(body), time.Now().UTC(),
		)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeStore, "insert card %q", cards[i].ID).WithModel(cards[i].ID).WithCause(err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_imports (source, card_count, checksum, imported_at) VALUES (?, ?, ?, ?)`,
		source, len(cards), hex.EncodeToString(digest.Sum(nil)), time.Now().UTC(),
	); err != nil {
		return schema.NewError(schema.ErrCodeStore, "record import").WithCause(err)
	}

	if err := tx.Commit(); err != nil {
		return schema.NewError(schema.ErrCodeStore, "commit import").WithCause(err)
	}
	return nil
}

// LoadCards returns every stored card ordered by position.
func (s *LibSQLStore) LoadCards(ctx context.Context) ([]schema.ModelCard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM model_cards ORDER BY position ASC`)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "query model_cards").WithCause(err)
	}
	defer rows.Close()

	cards := []schema.ModelCard{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "scan model card").WithCause(err)
		}
		card, err := decodeCard(id, body)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "iterate model_cards").WithCause(err)
	}
	return cards, nil
}

// GetCard returns one stored card.
func (s *LibSQLStore) GetCard(ctx context.Context, id string) (*schema.ModelCard, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM model_cards WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schema.ModelNotFound(id)
	}
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "query model card").WithModel(id).WithCause(err)
	}
	return decodeCard(id, body)
}

// LastImport returns the most recent import record, or nil if none exists.
func (s *LibSQLStore) LastImport(ctx context.Context) (*Import, error) {
	imp := &Import{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, card_count, checksum, imported_at FROM catalog_imports ORDER BY id DESC LIMIT 1`,
	).Scan(&imp.ID, &imp.Source, &imp.CardCount, &imp.Checksum, &imp.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "query catalog_imports").WithCause(err)
	}
	return imp, nil
}

func decodeCard(id, body string) (*schema.ModelCard, error) {
	card := &schema.ModelCard{}
	if err := json.Unmarshal([]byte(body), card); err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, fmt.Sprintf("decode card %q", id)).WithModel(id).WithCause(err)
	}
	return card, nil
}

var _ Store = (*LibSQLStore)(nil)
