// Package store persists users, figures and figure snapshots in Postgres.
package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/typeid"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

//go:embed schema.sql
var schema string

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// DBTX is the subset of pgx shared by pools, connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type Figure struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Snapshot struct {
	ID        string
	FigureID  string
	Version   int
	Document  json.RawMessage
	CreatedAt time.Time
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name) VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		u.ID, u.Email, u.Password, u.DisplayName,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`, email)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, query, arg string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return User{}, notFound(err, "get user")
	}
	return u, nil
}

// --- figures ---

// CreateFigure inserts a figure and its first snapshot in one transaction.
func (s *Store) CreateFigure(ctx context.Context, f Figure, snap *document.Snapshot) (Figure, error) {
	doc, err := json.Marshal(snap)
	if err != nil {
		return Figure{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO figures (id, owner_id, name) VALUES ($1, $2, $3)
			 RETURNING created_at, updated_at`,
			f.ID, f.OwnerID, f.Name,
		).Scan(&f.CreatedAt, &f.UpdatedAt); err != nil {
			return fmt.Errorf("insert figure: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO snapshots (id, figure_id, version, document) VALUES ($1, $2, 1, $3)`,
			typeid.NewSnapshotID(), f.ID, doc,
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return Figure{}, fmt.Errorf("create figure: %w", err)
	}
	return f, nil
}

func (s *Store) GetFigure(ctx context.Context, id string) (Figure, error) {
	var f Figure
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM figures WHERE id = $1`, id,
	).Scan(&f.ID, &f.OwnerID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return Figure{}, notFound(err, "get figure")
	}
	return f, nil
}

func (s *Store) ListFigures(ctx context.Context, ownerID string) ([]Figure, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM figures
		 WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list figures: %w", err)
	}
	figures, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Figure, error) {
		var f Figure
		err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("list figures: %w", err)
	}
	return figures, nil
}

func (s *Store) DeleteFigure(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM figures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete figure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- snapshots ---

func (s *Store) GetLatestSnapshot(ctx context.Context, figureID string) (Snapshot, error) {
	var snap Snapshot
	err := s.db.QueryRow(ctx,
		`SELECT id, figure_id, version, document, created_at FROM snapshots
		 WHERE figure_id = $1 ORDER BY version DESC LIMIT 1`, figureID,
	).Scan(&snap.ID, &snap.FigureID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		return Snapshot{}, notFound(err, "get snapshot")
	}
	return snap, nil
}

// LoadDocument returns the latest document snapshot of a figure.
func (s *Store) LoadDocument(ctx context.Context, figureID string) (*document.Snapshot, error) {
	row, err := s.GetLatestSnapshot(ctx, figureID)
	if err != nil {
		return nil, err
	}
	var snap document.Snapshot
	if err := json.Unmarshal(row.Document, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", row.ID, err)
	}
	snap.Figure.Version = row.Version
	return &snap, nil
}

// SaveDocument appends a snapshot as the figure's next version and records
// its name and modification time on the figure.
func (s *Store) SaveDocument(ctx context.Context, snap *document.Snapshot) error {
	figureID := snap.Figure.ID
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var version int
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE figure_id = $1`, figureID,
		).Scan(&version)
		if err != nil {
			return fmt.Errorf("next version: %w", err)
		}

		now := time.Now().UTC()
		out := *snap
		out.Figure.Version = version
		out.Figure.UpdatedAt = now.Format(time.RFC3339)
		doc, err := json.Marshal(&out)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO snapshots (id, figure_id, version, document) VALUES ($1, $2, $3, $4)`,
			typeid.NewSnapshotID(), figureID, version, doc,
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE figures SET name = $2, updated_at = $3 WHERE id = $1`,
			figureID, snap.Figure.Name, now,
		)
		if err != nil {
			return fmt.Errorf("update figure: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
