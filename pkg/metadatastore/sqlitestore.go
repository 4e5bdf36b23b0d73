package metadatastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

// SQLiteStore provides SQLite-based persistence for the model registry
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based storage instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by SQLite anyway
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// In-memory databases report "memory"
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check journal mode: %w", err)
	}
	if journalMode != "wal" && journalMode != "delete" && journalMode != "memory" {
		db.Close()
		return nil, fmt.Errorf("unexpected journal mode: got %s", journalMode)
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryOnBusy retries a database operation if it fails due to SQLITE_BUSY
func (s *SQLiteStore) retryOnBusy(operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") {
			// 10ms, 20ms, 40ms, ...
			backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
			time.Sleep(backoff)
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ml_models (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		artifact_path TEXT,
		cv_score REAL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ml_models_name ON ml_models(name, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveMLModel inserts or replaces a registry record. The version is
// assigned on first insert as one more than the highest version stored
// under the same name.
func (s *SQLiteStore) SaveMLModel(model *models.MLModel) error {
	if model.ID == "" {
		return fmt.Errorf("model ID is required")
	}

	if model.Version == 0 {
		var maxVersion sql.NullInt64
		err := s.db.QueryRow(`SELECT MAX(version) FROM ml_models WHERE name = ?`, model.Name).Scan(&maxVersion)
		if err != nil {
			return fmt.Errorf("failed to read model version: %w", err)
		}
		model.Version = int(maxVersion.Int64) + 1
	}

	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO ml_models (id, name, type, status, version, artifact_path, cv_score, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// Scheduled retraining can overlap with CLI or API reads
	err = s.retryOnBusy(func() error {
		_, execErr := s.db.Exec(query,
			model.ID,
			model.Name,
			string(model.Type),
			string(model.Status),
			model.Version,
			model.ModelArtifactPath,
			model.CVScore,
			model.CreatedAt.UTC(),
			model.UpdatedAt.UTC(),
			string(data),
		)
		return execErr
	}, 5)
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	return nil
}

// GetMLModel retrieves a model by ID
func (s *SQLiteStore) GetMLModel(id string) (*models.MLModel, error) {
	return s.scanOne(`SELECT data FROM ml_models WHERE id = ?`, id)
}

// GetLatestMLModel retrieves the highest version trained under name
func (s *SQLiteStore) GetLatestMLModel(name string) (*models.MLModel, error) {
	return s.scanOne(`SELECT data FROM ml_models WHERE name = ? ORDER BY version DESC LIMIT 1`, name)
}

// ListMLModels lists all models, newest first
func (s *SQLiteStore) ListMLModels() ([]*models.MLModel, error) {
	return s.scanAll(`SELECT data FROM ml_models ORDER BY created_at DESC, version DESC`)
}

// ListMLModelsByName lists every version trained under name, newest first
func (s *SQLiteStore) ListMLModelsByName(name string) ([]*models.MLModel, error) {
	return s.scanAll(`SELECT data FROM ml_models WHERE name = ? ORDER BY version DESC`, name)
}

// DeleteMLModel deletes a model record
func (s *SQLiteStore) DeleteMLModel(id string) error {
	res, err := s.db.Exec(`DELETE FROM ml_models WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) scanOne(query string, args ...any) (*models.MLModel, error) {
	var data string
	err := s.db.QueryRow(query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model %v: %w", args[0], ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	var model models.MLModel
	if err := json.Unmarshal([]byte(data), &model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	return &model, nil
}

func (s *SQLiteStore) scanAll(query string, args ...any) ([]*models.MLModel, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	result := make([]*models.MLModel, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}

		var model models.MLModel
		if err := json.Unmarshal([]byte(data), &model); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model: %w", err)
		}
		result = append(result, &model)
	}
	return result, rows.Err()
}
