package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"

	apperrors "github.com/Luciangogogo/qualtrics-data-processor2026/pkg/errors"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
)

// Repository defines the interface for data access operations
type Repository interface {
	// Survey operations
	ListActiveSurveyIDs(ctx context.Context, organisationID string) ([]string, error)
	GetSurveyUUID(ctx context.Context, qualtricsSurveyID string) (uuid.UUID, error)
	HasFieldMapping(ctx context.Context, qualtricsSurveyID string) (bool, error)
	HasMappings(ctx context.Context, surveyUUID uuid.UUID) (bool, error)
	UpdateSurveyMappings(ctx context.Context, surveyUUID uuid.UUID, mappings models.FieldMappings) error

	// Response operations
	DeleteResponses(ctx context.Context, surveyUUID uuid.UUID) (int64, error)
	InsertResponses(ctx context.Context, responses []*models.SurveyResponse) (int, error)

	// Extraction log operations
	InsertExtractionLog(ctx context.Context, entry *models.ExtractionLog) (int64, error)
	LastTwoExtractionHashes(ctx context.Context, qualtricsSurveyID string) ([]string, error)
	RecentExtractions(ctx context.Context, limit int) ([]models.ExtractionLog, error)

	// Status operations
	CountSurveys(ctx context.Context) (int, error)
	ListSurveyIDs(ctx context.Context) ([]string, error)

	// Utility operations
	Ping(ctx context.Context) error
	Close() error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// Open connects to PostgreSQL, applies the pool limits and verifies the
// connection with a ping.
func Open(ctx context.Context, dsn string, minConns, maxConns int) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(minConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepository wraps an existing database handle
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// DB exposes the underlying handle for connectivity checks
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

// Survey operations

func (r *PostgresRepository) ListActiveSurveyIDs(ctx context.Context, organisationID string) ([]string, error) {
	query := `SELECT DISTINCT qualtrics_survey_id
	          FROM surveys
	          WHERE status = 'active'
	          ORDER BY qualtrics_survey_id`
	args := []interface{}{}
	if organisationID != "" {
		query = `SELECT DISTINCT qualtrics_survey_id
		         FROM surveys
		         WHERE organisation_id = $1 AND status = 'active'
		         ORDER BY qualtrics_survey_id`
		args = append(args, organisationID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing active surveys: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning survey id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) GetSurveyUUID(ctx context.Context, qualtricsSurveyID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM surveys WHERE qualtrics_survey_id = $1`,
		qualtricsSurveyID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("%w: qualtrics_survey_id %s", apperrors.ErrSurveyNotFound, qualtricsSurveyID)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("getting survey uuid: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) HasFieldMapping(ctx context.Context, qualtricsSurveyID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM surveys
		   WHERE qualtrics_survey_id = $1
		     AND field_mapping IS NOT NULL
		     AND field_mapping != '{}'::jsonb
		     AND field_mapping != 'null'::jsonb
		 )`,
		qualtricsSurveyID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking field mapping: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) HasMappings(ctx context.Context, surveyUUID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM surveys
		   WHERE id = $1
		     AND field_mapping IS NOT NULL
		     AND field_mapping != '{}'::jsonb
		 )`,
		surveyUUID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking existing mappings: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateSurveyMappings(ctx context.Context, surveyUUID uuid.UUID, mappings models.FieldMappings) error {
	fieldMapping, err := json.Marshal(mappings.Mappings)
	if err != nil {
		return fmt.Errorf("encoding field mappings: %w", err)
	}

	serviceType := mappings.KeyFields["ServiceType"]

	_, err = r.db.ExecContext(ctx,
		`UPDATE surveys
		 SET field_mapping = $1, name = $2, service_type = $3
		 WHERE id = $4`,
		fieldMapping, mappings.SurveyName, serviceType, surveyUUID,
	)
	if err != nil {
		return fmt.Errorf("updating survey mappings: %w", err)
	}
	return nil
}

// Response operations

func (r *PostgresRepository) DeleteResponses(ctx context.Context, surveyUUID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM survey_responses WHERE survey_id = $1`, surveyUUID)
	if err != nil {
		return 0, fmt.Errorf("deleting survey responses: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted responses: %w", err)
	}
	return deleted, nil
}

// InsertResponses inserts transformed responses inside one transaction.
// Each row is wrapped in a savepoint: a failed insert would otherwise abort
// the whole PostgreSQL transaction, so rolling back to the savepoint lets the
// batch continue past a malformed row.
func (r *PostgresRepository) InsertResponses(ctx context.Context, responses []*models.SurveyResponse) (int, error) {
	if len(responses) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO survey_responses
		   (survey_id, submitted_at, period_year, period_month, response_data)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for idx, response := range responses {
		data, err := json.Marshal(response.Data)
		if err != nil {
			log.WithError(err).WithField("row", idx).Warn("Failed to encode response row, skipping")
			continue
		}

		if _, err := tx.ExecContext(ctx, `SAVEPOINT insert_response`); err != nil {
			return inserted, fmt.Errorf("creating savepoint: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			response.SurveyID, response.SubmittedAt,
			response.PeriodYear, response.PeriodMonth, data,
		); err != nil {
			log.WithError(err).WithField("row", idx).Warn("Failed to insert response row, skipping")
			if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT insert_response`); err != nil {
				return inserted, fmt.Errorf("rolling back to savepoint: %w", err)
			}
			continue
		}

		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT insert_response`); err != nil {
			return inserted, fmt.Errorf("releasing savepoint: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing responses: %w", err)
	}
	return inserted, nil
}

// Extraction log operations

func (r *PostgresRepository) InsertExtractionLog(ctx context.Context, entry *models.ExtractionLog) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO survey_responses_extraction_log
		   (survey_id, file_name, file_size, file_hash, extracted_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		entry.SurveyID, entry.FileName, entry.FileSize, entry.FileHash, entry.ExtractedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting extraction log: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) LastTwoExtractionHashes(ctx context.Context, qualtricsSurveyID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT file_hash
		 FROM survey_responses_extraction_log
		 WHERE survey_id = $1
		 ORDER BY extracted_at DESC
		 LIMIT 2`,
		qualtricsSurveyID)
	if err != nil {
		return nil, fmt.Errorf("querying extraction hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scanning extraction hash: %w", err)
		}
		hashes = append(hashes, hash)
	}
	return hashes, rows.Err()
}

func (r *PostgresRepository) RecentExtractions(ctx context.Context, limit int) ([]models.ExtractionLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, survey_id, file_name, file_size, file_hash, extracted_at
		 FROM survey_responses_extraction_log
		 ORDER BY extracted_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent extractions: %w", err)
	}
	defer rows.Close()

	var entries []models.ExtractionLog
	for rows.Next() {
		var entry models.ExtractionLog
		if err := rows.Scan(&entry.ID, &entry.SurveyID, &entry.FileName,
			&entry.FileSize, &entry.FileHash, &entry.ExtractedAt); err != nil {
			return nil, fmt.Errorf("scanning extraction log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Status operations

func (r *PostgresRepository) CountSurveys(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT qualtrics_survey_id) FROM surveys`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("counting surveys: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) ListSurveyIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT qualtrics_survey_id FROM surveys ORDER BY qualtrics_survey_id`)
	if err != nil {
		return nil, fmt.Errorf("listing survey ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning survey id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Utility operations

func (r *PostgresRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("closing repository: %w", err)
	}
	return nil
}
