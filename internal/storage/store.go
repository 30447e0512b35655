// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tipsplit/internal/models"
)

// ErrNotFound is returned when a template or split does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for template and split history storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateTemplate persists a new template.
	// The ID, CreatedAt and UpdatedAt fields are populated by the store.
	CreateTemplate(ctx context.Context, tmpl *models.TipTemplate) error

	// GetTemplate retrieves a template by its ID.
	// Returns an error wrapping ErrNotFound if it does not exist.
	GetTemplate(ctx context.Context, templateID string) (*models.TipTemplate, error)

	// ListTemplates returns all templates, most recently updated first.
	ListTemplates(ctx context.Context) ([]*models.TipTemplate, error)

	// UpdateTemplate replaces an existing template's rules and participants.
	UpdateTemplate(ctx context.Context, tmpl *models.TipTemplate) error

	// DeleteTemplate removes a template and its split history.
	DeleteTemplate(ctx context.Context, templateID string) error

	// SaveSplit records a computed split. ID and CreatedAt are populated.
	SaveSplit(ctx context.Context, record *models.SplitRecord) error

	// GetSplit retrieves a recorded split by its ID.
	GetSplit(ctx context.Context, splitID string) (*models.SplitRecord, error)

	// ListSplits returns a template's recorded splits, newest first.
	ListSplits(ctx context.Context, templateID string) ([]*models.SplitRecord, error)

	// Close releases any resources held by the store.
	Close() error
}
