package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var _ JobRepository = (*SQLJobRepository)(nil)

// SQLJobRepository is the SQLite-backed JobRepository.
type SQLJobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *SQLJobRepository {
	return &SQLJobRepository{db: db}
}

const jobColumns = `id, source_url, feed_url, feed_filename, mode, format, item_limit,
	refresh_interval, include_keywords, exclude_keywords, allow_empty, extract_content,
	last_refresh_at, last_refresh_status, last_refresh_error, last_refresh_code,
	items_count, failure_streak, last_validation, diagnostics, created_at, updated_at`

func (r *SQLJobRepository) CreateJob(job *Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	include, err := encodeStrings(job.IncludeKeywords)
	if err != nil {
		return err
	}
	exclude, err := encodeStrings(job.ExcludeKeywords)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO jobs (id, source_url, feed_url, feed_filename, mode, format, item_limit,
			refresh_interval, include_keywords, exclude_keywords, allow_empty, extract_content,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.SourceURL, job.FeedURL, job.FeedFilename, job.Mode, job.Format, job.Limit,
		job.RefreshInterval, include, exclude, job.AllowEmpty, job.ExtractContent,
		now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

func (r *SQLJobRepository) GetJob(id string) (*Job, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (r *SQLJobRepository) GetJobByFilename(filename string) (*Job, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE feed_filename = ?`, filename)
	return scanJob(row)
}

func (r *SQLJobRepository) ListJobs() ([]Job, error) {
	rows, err := r.db.Query(`SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (r *SQLJobRepository) UpdateFilters(id string, include, exclude []string) error {
	encodedInclude, err := encodeStrings(include)
	if err != nil {
		return err
	}
	encodedExclude, err := encodeStrings(exclude)
	if err != nil {
		return err
	}

	res, err := r.db.Exec(`
		UPDATE jobs
		SET include_keywords = ?, exclude_keywords = ?, updated_at = ?
		WHERE id = ?
	`, encodedInclude, encodedExclude, time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update filters: %w", err)
	}

	return requireRow(res, id)
}

func (r *SQLJobRepository) DeleteJob(id string) error {
	res, err := r.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return requireRow(res, id)
}

// GetJobsDueForRefresh returns jobs whose refresh interval has elapsed,
// oldest-due first, capped at max. Never-refreshed jobs sort first.
func (r *SQLJobRepository) GetJobsDueForRefresh(now time.Time, max int) ([]Job, error) {
	rows, err := r.db.Query(`
		SELECT `+jobColumns+`
		FROM jobs
		WHERE last_refresh_at IS NULL
		   OR last_refresh_at + refresh_interval <= ?
		ORDER BY COALESCE(last_refresh_at, 0)
		LIMIT ?
	`, now.Unix(), max)
	if err != nil {
		return nil, fmt.Errorf("failed to get due jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (r *SQLJobRepository) RecordSuccess(id string, at time.Time, code int, itemsCount int, validation Validation) error {
	encodedValidation, err := json.Marshal(validation)
	if err != nil {
		return fmt.Errorf("failed to encode validation: %w", err)
	}

	res, err := r.db.Exec(`
		UPDATE jobs
		SET last_refresh_at = ?, last_refresh_status = ?, last_refresh_error = '',
			last_refresh_code = ?, items_count = ?, failure_streak = 0,
			last_validation = ?, diagnostics = '', updated_at = ?
		WHERE id = ?
	`, at.Unix(), StatusOK, code, itemsCount, string(encodedValidation), at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}
	return requireRow(res, id)
}

// RecordFailure increments the failure streak and captures diagnostics.
// Items count and validation are untouched: they describe the
// last-known-good feed, which remains published.
func (r *SQLJobRepository) RecordFailure(id string, at time.Time, code int, message string, diag Diagnostics) error {
	encodedDiag, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	res, err := r.db.Exec(`
		UPDATE jobs
		SET last_refresh_at = ?, last_refresh_status = ?, last_refresh_error = ?,
			last_refresh_code = ?, failure_streak = failure_streak + 1,
			diagnostics = ?, updated_at = ?
		WHERE id = ?
	`, at.Unix(), StatusFail, message, code, string(encodedDiag), at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return requireRow(res, id)
}

// RecordSkip notes an allow-empty refresh. The failure streak, items
// count and validation are untouched.
func (r *SQLJobRepository) RecordSkip(id string, at time.Time, note string, auto bool) error {
	diag := Diagnostics{Note: note, CapturedAt: at}
	if auto {
		diag.Details = "auto"
	} else {
		diag.Details = "manual"
	}
	encodedDiag, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	res, err := r.db.Exec(`
		UPDATE jobs
		SET last_refresh_at = ?, last_refresh_status = ?, last_refresh_error = '',
			diagnostics = ?, updated_at = ?
		WHERE id = ?
	`, at.Unix(), StatusSkip, string(encodedDiag), at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record skip: %w", err)
	}
	return requireRow(res, id)
}

func (r *SQLJobRepository) CountJobs() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var include, exclude, validation, diagnostics string
	var lastRefreshAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&job.ID, &job.SourceURL, &job.FeedURL, &job.FeedFilename, &job.Mode, &job.Format,
		&job.Limit, &job.RefreshInterval, &include, &exclude, &job.AllowEmpty,
		&job.ExtractContent, &lastRefreshAt, &job.LastRefreshStatus, &job.LastRefreshError,
		&job.LastRefreshCode, &job.ItemsCount, &job.FailureStreak, &validation,
		&diagnostics, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job row: %w", err)
	}

	if err := json.Unmarshal([]byte(include), &job.IncludeKeywords); err != nil {
		return nil, fmt.Errorf("failed to decode include keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(exclude), &job.ExcludeKeywords); err != nil {
		return nil, fmt.Errorf("failed to decode exclude keywords: %w", err)
	}

	if lastRefreshAt.Valid {
		t := time.Unix(lastRefreshAt.Int64, 0).UTC()
		job.LastRefreshAt = &t
	}

	if validation != "" {
		job.LastValidation = &Validation{}
		if err := json.Unmarshal([]byte(validation), job.LastValidation); err != nil {
			return nil, fmt.Errorf("failed to decode validation: %w", err)
		}
	}
	if diagnostics != "" {
		job.Diagnostics = &Diagnostics{}
		if err := json.Unmarshal([]byte(diagnostics), job.Diagnostics); err != nil {
			return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
		}
	}

	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	job.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]Job, error) {
	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return jobs, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode keyword list: %w", err)
	}
	return string(data), nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}
