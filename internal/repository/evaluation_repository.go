// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abelzeko/panchayat-water/internal/entities"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an evaluation does not exist
var ErrNotFound = errors.New("evaluation not found")

// EvaluationFilter narrows ListEvaluations. Zero fields do not filter.
type EvaluationFilter struct {
	Kind    entities.Kind
	Subject string
	Since   time.Time
	Limit   int
}

// EvaluationRepository defines the persistence operations for scorer runs
type EvaluationRepository interface {
	SaveEvaluation(ctx context.Context, e *entities.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*entities.Evaluation, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]entities.Evaluation, error)
	UpdateResult(ctx context.Context, id, tier string, score float64, result json.RawMessage) error
	Close() error
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		subject TEXT NOT NULL,
		tier TEXT NOT NULL,
		score REAL NOT NULL,
		input TEXT NOT NULL,
		result TEXT NOT NULL,
		reasoning TEXT,
		recommended_actions TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_evaluations_kind_subject ON evaluations(kind, subject);
	CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);`

const selectColumns = `id, kind, subject, tier, score, input, result, reasoning, recommended_actions, created_at`

// SQLiteEvaluationRepository implements EvaluationRepository using SQLite
type SQLiteEvaluationRepository struct {
	db     *sql.DB
	logger *zap.Logger
	DBPath string
}

// NewSQLiteEvaluationRepository opens (creating if needed) the SQLite database
// at dbPath and makes sure the schema exists
func NewSQLiteEvaluationRepository(dbPath string, logger *zap.Logger) (*SQLiteEvaluationRepository, error) {
	if dbPath == "" {
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath = filepath.Join(dbDir, "evaluations.db")
	}

	logger.Info("Opening database", zap.String("path", dbPath))
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	repo := NewEvaluationRepository(db, logger)
	repo.DBPath = dbPath
	return repo, nil
}

// NewEvaluationRepository wraps an already opened database
func NewEvaluationRepository(db *sql.DB, logger *zap.Logger) *SQLiteEvaluationRepository {
	return &SQLiteEvaluationRepository{db: db, logger: logger}
}

// Close closes the database connection
func (r *SQLiteEvaluationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveEvaluation inserts a new evaluation
func (r *SQLiteEvaluationRepository) SaveEvaluation(ctx context.Context, e *entities.Evaluation) error {
	actions, err := json.Marshal(e.RecommendedActions)
	if err != nil {
		return fmt.Errorf("failed to encode recommended actions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO evaluations(id, kind, subject, tier, score, input, result, reasoning, recommended_actions, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		string(e.Kind),
		e.Subject,
		e.Tier,
		e.Score,
		string(e.Input),
		string(e.Result),
		e.Reasoning,
		string(actions),
		e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation %s: %w", e.ID, err)
	}

	r.logger.Debug("Saved evaluation",
		zap.String("id", e.ID),
		zap.String("kind", string(e.Kind)),
		zap.String("subject", e.Subject),
	)
	return nil
}

// GetEvaluation retrieves one evaluation by id
func (r *SQLiteEvaluationRepository) GetEvaluation(ctx context.Context, id string) (*entities.Evaluation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM evaluations WHERE id = ?`, id)
	e, err := scanEvaluation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation %s: %w", id, err)
	}
	return e, nil
}

// ListEvaluations returns matching evaluations, newest first
func (r *SQLiteEvaluationRepository) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]entities.Evaluation, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, filter.Subject)
	}
	// created_at is stored as UTC text and compared as a string, so the
	// cutoff must be rendered in UTC too
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT ` + selectColumns + ` FROM evaluations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var result []entities.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return result, nil
}

// UpdateResult replaces the stored outcome of an evaluation after rescoring
func (r *SQLiteEvaluationRepository) UpdateResult(ctx context.Context, id, tier string, score float64, result json.RawMessage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE evaluations SET tier = ?, score = ?, result = ?, updated_at = ? WHERE id = ?`,
		tier, score, string(result), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update evaluation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (*entities.Evaluation, error) {
	var (
		e         entities.Evaluation
		kind      string
		input     string
		result    string
		reasoning sql.NullString
		actions   sql.NullString
	)
	if err := row.Scan(
		&e.ID,
		&kind,
		&e.Subject,
		&e.Tier,
		&e.Score,
		&input,
		&result,
		&reasoning,
		&actions,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.Kind = entities.Kind(kind)
	e.Input = json.RawMessage(input)
	e.Result = json.RawMessage(result)
	e.Reasoning = reasoning.String
	if actions.Valid && actions.String != "" && actions.String != "null" {
		if err := json.Unmarshal([]byte(actions.String), &e.RecommendedActions); err != nil {
			return nil, fmt.Errorf("failed to decode recommended actions: %w", err)
		}
	}
	return &e, nil
}
