package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"energy-scraper/models"
	"energy-scraper/utils"
)

var placeholder = regexp.MustCompile(`\$\d+`)

// SQLSnapshotStore stores dataset snapshots in PostgreSQL or SQLite
type SQLSnapshotStore struct {
	db     *sql.DB
	driver string
	ttl    time.Duration
	now    func() time.Time
	logger *utils.Logger
}

type snapshotRecord struct {
	Fecha  string              `json:"fecha"`
	Hora   string              `json:"hora"`
	Values map[string]*float64 `json:"values"`
}

type snapshotBody struct {
	Columns []string            `json:"columns"`
	Records []snapshotRecord    `json:"records"`
	Skipped []models.DayFailure `json:"skipped,omitempty"`
}

// NewSQLSnapshotStore opens the database and pings it. driver is "postgres" or "sqlite".
// Snapshots older than ttl are invisible to Load; ttl <= 0 keeps them forever.
func NewSQLSnapshotStore(driver, dsn string, ttl time.Duration, logger *utils.Logger) (*SQLSnapshotStore, error) {
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported snapshot driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	if driver == "sqlite" {
		// one connection so ":memory:" is a single database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Minute * 5)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to %s snapshot store", driver)
	return &SQLSnapshotStore{db: db, driver: driver, ttl: ttl, now: time.Now, logger: logger}, nil
}

func (s *SQLSnapshotStore) rebind(query string) string {
	if s.driver == "postgres" {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}

// CreateTable creates the dataset_snapshots table if it doesn't exist
func (s *SQLSnapshotStore) CreateTable(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dataset_snapshots (
			id         VARCHAR(36) PRIMARY KEY,
			category   VARCHAR(32) NOT NULL,
			fill       VARCHAR(8)  NOT NULL,
			body       TEXT        NOT NULL,
			created_at BIGINT      NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dataset_snapshots_created ON dataset_snapshots (created_at)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	s.logger.Info("Table 'dataset_snapshots' is ready")
	return nil
}

// Save stores ds and returns its snapshot id
func (s *SQLSnapshotStore) Save(ctx context.Context, ds models.Dataset) (string, error) {
	body := snapshotBody{Columns: ds.Columns, Skipped: ds.Skipped, Records: make([]snapshotRecord, len(ds.Records))}
	for i, rec := range ds.Records {
		body.Records[i] = snapshotRecord{Fecha: rec.Fecha, Hora: rec.Hora, Values: rec.Values}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO dataset_snapshots (id, category, fill, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`), id, string(ds.Category), string(ds.Fill), string(data), s.now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	s.logger.Debug("Saved %s snapshot %s (%d rows)", ds.Category, id, ds.Len())
	return id, nil
}

// Load returns a stored dataset; unknown or expired ids give ErrSnapshotNotFound
func (s *SQLSnapshotStore) Load(ctx context.Context, id string) (models.Dataset, error) {
	var category, fill, data string
	var createdAt int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT category, fill, body, created_at FROM dataset_snapshots WHERE id = $1
	`), id).Scan(&category, &fill, &data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Dataset{}, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	if s.expired(createdAt) {
		return models.Dataset{}, fmt.Errorf("%w: %s expired", models.ErrSnapshotNotFound, id)
	}

	var body snapshotBody
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}

	ds := models.Dataset{
		Category: models.Category(category),
		Columns:  body.Columns,
		Fill:     models.FillPolicy(fill),
		Skipped:  body.Skipped,
		Records:  make([]models.Record, len(body.Records)),
	}
	for i, rec := range body.Records {
		values := rec.Values
		if values == nil {
			values = map[string]*float64{}
		}
		ds.Records[i] = models.Record{Fecha: rec.Fecha, Hora: rec.Hora, Values: values}
	}
	return ds, nil
}

func (s *SQLSnapshotStore) expired(createdAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(createdAt, 0)) > s.ttl
}

// Delete removes a snapshot; deleting an unknown id is not an error
func (s *SQLSnapshotStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM dataset_snapshots WHERE id = $1`), id); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}

// PurgeOlderThan deletes snapshots created more than ttl ago and returns how many went
func (s *SQLSnapshotStore) PurgeOlderThan(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := s.now().Add(-ttl).Unix()
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM dataset_snapshots WHERE created_at < $1`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged snapshots: %w", err)
	}
	if n > 0 {
		s.logger.Info("Purged %d snapshots older than %s", n, ttl)
	}
	return n, nil
}

// Close closes the database connection
func (s *SQLSnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
