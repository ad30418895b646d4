package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"github.com/openfroyo/strata/pkg/config"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// An in-memory database is private to its connection; with a pool,
	// every new connection would see an empty schema.
	if s.path == ":memory:" || strings.Contains(s.path, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// SaveDocument stores a document under a name, replacing any previous
// document stored under the same name. The write is transactional: a
// partially stored document is never visible.
func (s *SQLiteStore) SaveDocument(ctx context.Context, name string, doc *config.Document) error {
	if name == "" {
		return fmt.Errorf("document name is required")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, source_files, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, name, strings.Join(doc.SourceFiles, "\n"), now, now); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	for i, setting := range doc.Settings {
		var defaultJSON *string
		if setting.Default != nil {
			encoded, err := json.Marshal(setting.Default)
			if err != nil {
				return fmt.Errorf("failed to encode default for %s: %w", setting.Name, err)
			}
			str := string(encoded)
			defaultJSON = &str
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (document_id, position, name, kind, type, default_value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, setting.Name, setting.Kind, setting.Type, defaultJSON); err != nil {
			return fmt.Errorf("failed to insert setting %s: %w", setting.Name, err)
		}
	}

	for i, layer := range doc.Layers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO layers (document_id, position, name)
			VALUES (?, ?, ?)
		`, id, i, layer.Name); err != nil {
			return fmt.Errorf("failed to insert layer %s: %w", layer.Name, err)
		}

		for pos, parent := range layer.Parents {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO layer_parents (document_id, layer_name, position, parent_name)
				VALUES (?, ?, ?, ?)
			`, id, layer.Name, pos, parent); err != nil {
				return fmt.Errorf("failed to insert parent link %s -> %s: %w", layer.Name, parent, err)
			}
		}

		for setting, value := range layer.Values {
			var valueJSON *string
			isNull := value == nil
			if !isNull {
				encoded, err := json.Marshal(value)
				if err != nil {
					return fmt.Errorf("failed to encode value %s.%s: %w", layer.Name, setting, err)
				}
				str := string(encoded)
				valueJSON = &str
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO layer_values (document_id, layer_name, setting, value, is_null)
				VALUES (?, ?, ?, ?, ?)
			`, id, layer.Name, setting, valueJSON, isNull); err != nil {
				return fmt.Errorf("failed to insert value %s.%s: %w", layer.Name, setting, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// LoadDocument retrieves a document by name.
func (s *SQLiteStore) LoadDocument(ctx context.Context, name string) (*config.Document, error) {
	var id string
	var sourceFiles string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_files, updated_at FROM documents WHERE name = ?
	`, name).Scan(&id, &sourceFiles, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc := &config.Document{ParsedAt: updatedAt}
	if sourceFiles != "" {
		doc.SourceFiles = strings.Split(sourceFiles, "\n")
	}

	if err := s.loadSettings(ctx, id, doc); err != nil {
		return nil, err
	}
	if err := s.loadLayers(ctx, id, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *SQLiteStore) loadSettings(ctx context.Context, id string, doc *config.Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, type, default_value
		FROM settings
		WHERE document_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var setting config.SettingConfig
		var defaultJSON *string
		if err := rows.Scan(&setting.Name, &setting.Kind, &setting.Type, &defaultJSON); err != nil {
			return fmt.Errorf("failed to scan setting: %w", err)
		}
		if defaultJSON != nil {
			if err := json.Unmarshal([]byte(*defaultJSON), &setting.Default); err != nil {
				return fmt.Errorf("failed to decode default for %s: %w", setting.Name, err)
			}
		}
		doc.Settings = append(doc.Settings, setting)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadLayers(ctx context.Context, id string, doc *config.Document) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM layers WHERE document_id = ? ORDER BY position ASC
	`, id)
	if err != nil {
		return fmt.Errorf("failed to list layers: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var layer config.LayerConfig
		if err := rows.Scan(&layer.Name); err != nil {
			return fmt.Errorf("failed to scan layer: %w", err)
		}
		index[layer.Name] = len(doc.Layers)
		doc.Layers = append(doc.Layers, layer)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	parentRows, err := s.db.QueryContext(ctx, `
		SELECT layer_name, parent_name
		FROM layer_parents
		WHERE document_id = ?
		ORDER BY layer_name, position ASC
	`, id)
	if err != nil {
		return fmt.Errorf("failed to list parent links: %w", err)
	}
	defer parentRows.Close()

	for parentRows.Next() {
		var layerName, parentName string
		if err := parentRows.Scan(&layerName, &parentName); err != nil {
			return fmt.Errorf("failed to scan parent link: %w", err)
		}
		if i, ok := index[layerName]; ok {
			doc.Layers[i].Parents = append(doc.Layers[i].Parents, parentName)
		}
	}
	if err := parentRows.Err(); err != nil {
		return err
	}

	valueRows, err := s.db.QueryContext(ctx, `
		SELECT layer_name, setting, value, is_null
		FROM layer_values
		WHERE document_id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to list values: %w", err)
	}
	defer valueRows.Close()

	for valueRows.Next() {
		var layerName, setting string
		var valueJSON *string
		var isNull bool
		if err := valueRows.Scan(&layerName, &setting, &valueJSON, &isNull); err != nil {
			return fmt.Errorf("failed to scan value: %w", err)
		}
		i, ok := index[layerName]
		if !ok {
			continue
		}
		if doc.Layers[i].Values == nil {
			doc.Layers[i].Values = make(map[string]any)
		}
		if isNull || valueJSON == nil {
			doc.Layers[i].Values[setting] = nil
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(*valueJSON), &v); err != nil {
			return fmt.Errorf("failed to decode value %s.%s: %w", layerName, setting, err)
		}
		doc.Layers[i].Values[setting] = v
	}
	return valueRows.Err()
}

// ListDocuments lists stored document records, most recently updated first.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source_files, created_at, updated_at
		FROM documents
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	records := []*DocumentRecord{}
	for rows.Next() {
		record := &DocumentRecord{}
		var sourceFiles string
		if err := rows.Scan(&record.ID, &record.Name, &sourceFiles, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if sourceFiles != "" {
			record.SourceFiles = strings.Split(sourceFiles, "\n")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return records, nil
}

// DeleteDocument removes a stored document by name. Settings, layers, and
// values go with it via foreign key cascade.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("document not found: %s", name)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
