// Package tokenstore persists the bearer token and the cached user snapshot
// for the CLI session. It is the sole durable source of "do we have
// credentials": the token and the user snapshot are always cleared together.
//
// Besides the database, the current token is mirrored into a plain file next
// to it, so that external tooling (shell scripts, request-inspection hooks)
// can read the token without opening the database. The mirror is removed the
// moment credentials are cleared.
package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/rampforge/rampforge/internal/client/migrations"
	"github.com/rampforge/rampforge/internal/client/models"
	"github.com/rampforge/rampforge/internal/dbx"
)

const (
	keyToken = "token"
	keyUser  = "user"

	mirrorMode = 0o600
)

// Store is the durable credential store. A Store constructed with Disabled
// (or with a nil handle) no-ops on every operation and returns zero values;
// this keeps callers safe in environments without a writable state directory.
type Store struct {
	db         dbx.DBTX
	mirrorPath string
}

// New returns a Store over the given database handle. mirrorPath may be
// empty to disable the token mirror file.
func New(db dbx.DBTX, mirrorPath string) *Store {
	return &Store{db: db, mirrorPath: mirrorPath}
}

// Disabled returns a Store whose operations are all no-ops.
func Disabled() *Store { return &Store{} }

// Enabled reports whether the store has a backing database.
func (s *Store) Enabled() bool { return s.db != nil }

// Open opens (creating if necessary) the client state database at dsn and
// runs the embedded migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, err := s.get(ctx, keyToken)
	if err != nil || v == nil {
		return "", err
	}
	return string(v), nil
}

// SetToken stores the bearer token, overwriting any prior value, and
// refreshes the mirror file.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if s.db == nil {
		return nil
	}
	if err := s.set(ctx, keyToken, []byte(token)); err != nil {
		return err
	}
	return s.writeMirror(token)
}

// User returns the cached user snapshot, or nil when none is stored.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	v, err := s.get(ctx, keyUser)
	if err != nil || v == nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal(v, &u); err != nil {
		// A corrupt snapshot is treated as absent; the controller will
		// re-fetch the profile.
		return nil, nil
	}
	return &u, nil
}

// SetUser stores the user snapshot in serialized form.
func (s *Store) SetUser(ctx context.Context, u *models.User) error {
	if s.db == nil || u == nil {
		return nil
	}
	v, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user snapshot: %w", err)
	}
	return s.set(ctx, keyUser, v)
}

// Clear removes the token and the user snapshot together and deletes the
// mirror file. Calling Clear on an already-empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_state WHERE key IN (?, ?)`, keyToken, keyUser); err != nil {
		return fmt.Errorf("clear session state: %w", err)
	}
	return s.removeMirror()
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, nil
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session_state[%s]: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set session_state[%s]: %w", key, err)
	}
	return nil
}

func (s *Store) writeMirror(token string) error {
	if s.mirrorPath == "" {
		return nil
	}
	if err := os.WriteFile(s.mirrorPath, []byte(token), mirrorMode); err != nil {
		return fmt.Errorf("write token mirror: %w", err)
	}
	return nil
}

func (s *Store) removeMirror() error {
	if s.mirrorPath == "" {
		return nil
	}
	if err := os.Remove(s.mirrorPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token mirror: %w", err)
	}
	return nil
}
