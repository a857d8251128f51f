// Package figures is the HTTP-facing service for creating, listing, loading
// and rendering figures.
package figures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/engine"
	"github.com/inamate/figcore/internal/store"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/typeid"
	"github.com/inamate/figcore/internal/units"
)

var (
	ErrNotFound  = errors.New("figure not found")
	ErrForbidden = errors.New("forbidden")
)

// Store is the persistence the figure service needs.
type Store interface {
	CreateFigure(ctx context.Context, f store.Figure, snap *document.Snapshot) (store.Figure, error)
	GetFigure(ctx context.Context, id string) (store.Figure, error)
	ListFigures(ctx context.Context, ownerID string) ([]store.Figure, error)
	DeleteFigure(ctx context.Context, id string) error
	LoadDocument(ctx context.Context, figureID string) (*document.Snapshot, error)
}

type Service struct {
	store    Store
	defaults style.Defaults
	opts     document.Options
}

func NewService(s Store, defaults style.Defaults, opts document.Options) *Service {
	return &Service{store: s, defaults: defaults, opts: opts}
}

type Figure struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Page sizes accepted at creation; the default is US letter.
var (
	DefaultWidth  = units.Inches(8.5)
	DefaultHeight = units.Inches(11)
)

func (s *Service) Create(ctx context.Context, name, ownerID string, width, height units.Measure) (*Figure, error) {
	if width.Value <= 0 || height.Value <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	figureID := typeid.NewFigureID()
	now := time.Now().UTC().Format(time.RFC3339)
	snap := document.NewEmptySnapshot(document.FigureInfo{
		ID:        figureID,
		Name:      name,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, typeid.New(typeid.PrefixFigure), width, height)

	f, err := s.store.CreateFigure(ctx, store.Figure{ID: figureID, OwnerID: ownerID, Name: name}, snap)
	if err != nil {
		return nil, fmt.Errorf("create figure: %w", err)
	}
	return toFigure(f), nil
}

func (s *Service) Get(ctx context.Context, figureID, userID string) (*Figure, error) {
	f, err := s.authorize(ctx, figureID, userID)
	if err != nil {
		return nil, err
	}
	return toFigure(f), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Figure, error) {
	rows, err := s.store.ListFigures(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list figures: %w", err)
	}

	figures := make([]Figure, len(rows))
	for i, f := range rows {
		figures[i] = *toFigure(f)
	}
	return figures, nil
}

func (s *Service) Delete(ctx context.Context, figureID, userID string) error {
	if _, err := s.authorize(ctx, figureID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteFigure(ctx, figureID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete figure: %w", err)
	}
	return nil
}

// CanEdit reports whether userID may open an edit session on the figure.
func (s *Service) CanEdit(ctx context.Context, figureID, userID string) error {
	_, err := s.authorize(ctx, figureID, userID)
	return err
}

func (s *Service) GetLatestSnapshot(ctx context.Context, figureID, userID string) (*document.Snapshot, error) {
	if _, err := s.authorize(ctx, figureID, userID); err != nil {
		return nil, err
	}
	snap, err := s.store.LoadDocument(ctx, figureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// Render compiles the latest saved state of a figure into draw commands.
func (s *Service) Render(ctx context.Context, figureID, userID string) ([]engine.DrawCommand, error) {
	snap, err := s.GetLatestSnapshot(ctx, figureID, userID)
	if err != nil {
		return nil, err
	}
	doc, err := document.Open(snap, s.defaults, s.opts)
	if err != nil {
		return nil, fmt.Errorf("open figure: %w", err)
	}
	return engine.CompileDrawCommands(doc.Root(), nil), nil
}

func (s *Service) authorize(ctx context.Context, figureID, userID string) (store.Figure, error) {
	if err := typeid.Validate(figureID, typeid.PrefixFigure); err != nil {
		return store.Figure{}, ErrNotFound
	}
	f, err := s.store.GetFigure(ctx, figureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Figure{}, ErrNotFound
		}
		return store.Figure{}, fmt.Errorf("get figure: %w", err)
	}
	if f.OwnerID != userID {
		return store.Figure{}, ErrForbidden
	}
	return f, nil
}

func toFigure(f store.Figure) *Figure {
	return &Figure{
		ID:        f.ID,
		Name:      f.Name,
		OwnerID:   f.OwnerID,
		CreatedAt: f.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: f.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
