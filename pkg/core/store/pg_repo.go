package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGReportRepo stores reports in the analysis_reports table.
type PGReportRepo struct {
	pool *pgxpool.Pool
}

var _ ReportRepository = (*PGReportRepo)(nil)

func NewPGReportRepo(pool *pgxpool.Pool) *PGReportRepo {
	return &PGReportRepo{pool: pool}
}

func (r *PGReportRepo) Save(ctx context.Context, rec *Record) error {
	prepare(rec)
	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
		INSERT INTO analysis_reports (id, file_name, format, verdict, provider, warnings, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			verdict = EXCLUDED.verdict,
			provider = EXCLUDED.provider,
			warnings = EXCLUDED.warnings,
			report = EXCLUDED.report;
	`
	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.FileName, rec.Format, rec.Verdict, rec.Provider, warnings, []byte(rec.Report), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *PGReportRepo) Get(ctx context.Context, id string) (*Record, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id::text, file_name, format, verdict, COALESCE(provider, ''), warnings, report, created_at
		FROM analysis_reports WHERE id = $1
	`
	var (
		rec      Record
		warnings []byte
		report   []byte
	)
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.FileName, &rec.Format, &rec.Verdict, &rec.Provider, &warnings, &report, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &rec.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}
	rec.Report = report
	return &rec, nil
}

func (r *PGReportRepo) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id::text, file_name, format, verdict, COALESCE(provider, ''), created_at
		FROM analysis_reports ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.Format, &rec.Verdict, &rec.Provider, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
