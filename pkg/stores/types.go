package stores

import (
	"context"
	"time"

	"github.com/openfroyo/strata/pkg/config"
)

// DocumentRecord describes a stored settings document.
type DocumentRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SourceFiles []string  `json:"source_files,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is the persistence contract for settings documents.
type Store interface {
	// Init opens the underlying database.
	Init(ctx context.Context) error

	// Migrate brings the database schema up to date.
	Migrate(ctx context.Context) error

	// Close releases the underlying database.
	Close() error

	// SaveDocument stores a document under a name, replacing any previous
	// document stored under the same name.
	SaveDocument(ctx context.Context, name string, doc *config.Document) error

	// LoadDocument retrieves a document by name.
	LoadDocument(ctx context.Context, name string) (*config.Document, error)

	// ListDocuments lists stored document records, most recently updated
	// first.
	ListDocuments(ctx context.Context) ([]*DocumentRecord, error)

	// DeleteDocument removes a stored document by name.
	DeleteDocument(ctx context.Context, name string) error

	// HealthCheck verifies the database connection is healthy.
	HealthCheck(ctx context.Context) error
}
