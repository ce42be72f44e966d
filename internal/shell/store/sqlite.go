package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/siteship/siteship/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Row Type
// =============================================================================

// recordRow represents a deployment record row in the database.
type recordRow struct {
	ID                  string  `db:"id"`
	CustomerID          string  `db:"customer_id"`
	PlatformProjectID   string  `db:"platform_project_id"`
	PlatformProjectName string  `db:"platform_project_name"`
	ProductionURL       string  `db:"production_url"`
	SourceRepoURL       string  `db:"source_repo_url"`
	SourceBranch        string  `db:"source_branch"`
	CustomDomain        string  `db:"custom_domain"`
	DeploymentStatus    string  `db:"deployment_status"`
	DomainStatus        string  `db:"domain_status"`
	LastDeploymentID    string  `db:"last_deployment_id"`
	LastDeploymentAt    *string `db:"last_deployment_at"`
	LastDeploymentError string  `db:"last_deployment_error"`
	CreatedAt           string  `db:"created_at"`
	UpdatedAt           string  `db:"updated_at"`
}

// =============================================================================
// Deployment Record Operations
// =============================================================================

func (s *SQLiteStore) CreateDeploymentRecord(ctx context.Context, record *domain.DeploymentRecord) error {
	query := `
		INSERT INTO deployment_records (
			id, customer_id, platform_project_id, platform_project_name,
			production_url, source_repo_url, source_branch, custom_domain,
			deployment_status, domain_status, last_deployment_id,
			last_deployment_at, last_deployment_error, created_at, updated_at
		) VALUES (
			:id, :customer_id, :platform_project_id, :platform_project_name,
			:production_url, :source_repo_url, :source_branch, :custom_domain,
			:deployment_status, :domain_status, :last_deployment_id,
			:last_deployment_at, :last_deployment_error, :created_at, :updated_at
		)`

	_, err := s.db.NamedExecContext(ctx, query, recordToRow(record))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: deployment_records.customer_id") {
			return NewStoreError("CreateDeploymentRecord", record.CustomerID, "record already exists for this customer", ErrDuplicateCustomer)
		}
		return NewStoreError("CreateDeploymentRecord", record.CustomerID, err.Error(), err)
	}

	return nil
}

func (s *SQLiteStore) GetDeploymentRecord(ctx context.Context, customerID string) (*domain.DeploymentRecord, error) {
	query := `SELECT * FROM deployment_records WHERE customer_id = ?`

	var row recordRow
	err := s.db.GetContext(ctx, &row, query, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetDeploymentRecord", customerID, "record not found", ErrNotFound)
		}
		return nil, NewStoreError("GetDeploymentRecord", customerID, err.Error(), err)
	}

	return rowToRecord(&row), nil
}

func (s *SQLiteStore) UpdateDeploymentRecord(ctx context.Context, record *domain.DeploymentRecord) error {
	query := `
		UPDATE deployment_records SET
			platform_project_id = :platform_project_id,
			platform_project_name = :platform_project_name,
			production_url = :production_url,
			source_repo_url = :source_repo_url,
			source_branch = :source_branch,
			custom_domain = :custom_domain,
			deployment_status = :deployment_status,
			domain_status = :domain_status,
			last_deployment_id = :last_deployment_id,
			last_deployment_at = :last_deployment_at,
			last_deployment_error = :last_deployment_error,
			updated_at = :updated_at
		WHERE customer_id = :customer_id`

	result, err := s.db.NamedExecContext(ctx, query, recordToRow(record))
	if err != nil {
		return NewStoreError("UpdateDeploymentRecord", record.CustomerID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateDeploymentRecord", record.CustomerID, "record not found", ErrNotFound)
	}

	return nil
}

func (s *SQLiteStore) DeleteDeploymentRecord(ctx context.Context, customerID string) error {
	query := `DELETE FROM deployment_records WHERE customer_id = ?`

	result, err := s.db.ExecContext(ctx, query, customerID)
	if err != nil {
		return NewStoreError("DeleteDeploymentRecord", customerID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteDeploymentRecord", customerID, "record not found", ErrNotFound)
	}

	return nil
}

func (s *SQLiteStore) ListDeploymentRecords(ctx context.Context, opts ListOptions) ([]domain.DeploymentRecord, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM deployment_records ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []recordRow
	err := s.db.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListDeploymentRecords", "", err.Error(), err)
	}

	records := make([]domain.DeploymentRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rowToRecord(&rows[i]))
	}

	return records, nil
}

// =============================================================================
// Conditional Trigger Guard
// =============================================================================

// MarkDeploying performs the conditional deploying transition. The WHERE
// clause closes the check-then-act race between concurrent triggers: only
// one caller's UPDATE matches, the other observes zero rows and gets
// ErrDeployInFlight.
func (s *SQLiteStore) MarkDeploying(ctx context.Context, customerID string) (*domain.DeploymentRecord, error) {
	query := `
		UPDATE deployment_records SET
			deployment_status = ?,
			last_deployment_error = '',
			updated_at = ?
		WHERE customer_id = ? AND deployment_status != ?`

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, query,
		string(domain.DeployStatusDeploying), now, customerID, string(domain.DeployStatusDeploying))
	if err != nil {
		return nil, NewStoreError("MarkDeploying", customerID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		// Distinguish "no record" from "already deploying".
		if _, err := s.GetDeploymentRecord(ctx, customerID); err != nil {
			return nil, err
		}
		return nil, NewStoreError("MarkDeploying", customerID, "deployment already in flight", ErrDeployInFlight)
	}

	return s.GetDeploymentRecord(ctx, customerID)
}

// =============================================================================
// Row Conversion Functions
// =============================================================================

func recordToRow(record *domain.DeploymentRecord) map[string]any {
	var lastDeploymentAt *string
	if record.LastDeploymentAt != nil {
		s := record.LastDeploymentAt.Format(time.RFC3339)
		lastDeploymentAt = &s
	}

	return map[string]any{
		"id":                    record.ID,
		"customer_id":           record.CustomerID,
		"platform_project_id":   record.PlatformProjectID,
		"platform_project_name": record.PlatformProjectName,
		"production_url":        record.ProductionURL,
		"source_repo_url":       record.SourceRepoURL,
		"source_branch":         record.SourceBranch,
		"custom_domain":         record.CustomDomain,
		"deployment_status":     string(record.DeploymentStatus),
		"domain_status":         string(record.DomainStatus),
		"last_deployment_id":    record.LastDeploymentID,
		"last_deployment_at":    lastDeploymentAt,
		"last_deployment_error": record.LastDeploymentError,
		"created_at":            record.CreatedAt.Format(time.RFC3339),
		"updated_at":            record.UpdatedAt.Format(time.RFC3339),
	}
}

// rowToRecord converts a database row to a domain.DeploymentRecord.
func rowToRecord(row *recordRow) *domain.DeploymentRecord {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	var lastDeploymentAt *time.Time
	if row.LastDeploymentAt != nil && *row.LastDeploymentAt != "" {
		t, _ := time.Parse(time.RFC3339, *row.LastDeploymentAt)
		lastDeploymentAt = &t
	}

	return &domain.DeploymentRecord{
		ID:                  row.ID,
		CustomerID:          row.CustomerID,
		PlatformProjectID:   row.PlatformProjectID,
		PlatformProjectName: row.PlatformProjectName,
		ProductionURL:       row.ProductionURL,
		SourceRepoURL:       row.SourceRepoURL,
		SourceBranch:        row.SourceBranch,
		CustomDomain:        row.CustomDomain,
		DeploymentStatus:    domain.DeploymentStatus(row.DeploymentStatus),
		DomainStatus:        domain.DomainStatus(row.DomainStatus),
		LastDeploymentID:    row.LastDeploymentID,
		LastDeploymentAt:    lastDeploymentAt,
		LastDeploymentError: row.LastDeploymentError,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}
}
