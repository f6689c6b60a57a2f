package database

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testJob(id string) Job {
	return Job{
		ID:              id,
		SourceURL:       "https://ex.com/news",
		FeedURL:         "http://localhost:8080/feeds/" + id + ".xml",
		FeedFilename:    id + ".xml",
		Mode:            ModeCustom,
		Format:          "rss",
		Limit:           20,
		RefreshInterval: 3600,
		IncludeKeywords: []string{"go"},
		ExcludeKeywords: []string{},
	}
}

func TestCreateAndGetJob(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	loaded, err := repo.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected job to exist")
	}
	if loaded.SourceURL != "https://ex.com/news" || loaded.Mode != ModeCustom {
		t.Errorf("Unexpected job: %+v", loaded)
	}
	if len(loaded.IncludeKeywords) != 1 || loaded.IncludeKeywords[0] != "go" {
		t.Errorf("Unexpected include keywords: %v", loaded.IncludeKeywords)
	}
	if loaded.LastRefreshAt != nil {
		t.Errorf("New job should have no refresh timestamp")
	}
	if loaded.FailureStreak != 0 {
		t.Errorf("New job should have zero failure streak")
	}
}

func TestGetJob_NotFound(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job, err := repo.GetJob("missing")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job != nil {
		t.Errorf("Expected nil for missing job, got %+v", job)
	}
}

func TestGetJobByFilename(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	loaded, err := repo.GetJobByFilename("job-1.xml")
	if err != nil {
		t.Fatalf("GetJobByFilename failed: %v", err)
	}
	if loaded == nil || loaded.ID != "job-1" {
		t.Errorf("Unexpected result: %+v", loaded)
	}
}

func TestUpdateFilters(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if err := repo.UpdateFilters("job-1", []string{"rust", "zig"}, []string{"ads"}); err != nil {
		t.Fatalf("UpdateFilters failed: %v", err)
	}

	loaded, _ := repo.GetJob("job-1")
	if len(loaded.IncludeKeywords) != 2 || loaded.IncludeKeywords[1] != "zig" {
		t.Errorf("Unexpected include keywords: %v", loaded.IncludeKeywords)
	}
	if len(loaded.ExcludeKeywords) != 1 || loaded.ExcludeKeywords[0] != "ads" {
		t.Errorf("Unexpected exclude keywords: %v", loaded.ExcludeKeywords)
	}

	if err := repo.UpdateFilters("missing", nil, nil); err == nil {
		t.Errorf("Expected error for unknown job")
	}
}

func TestDeleteJob(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if err := repo.DeleteJob("job-1"); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if loaded, _ := repo.GetJob("job-1"); loaded != nil {
		t.Errorf("Job should be gone after delete")
	}
	if err := repo.DeleteJob("job-1"); err == nil {
		t.Errorf("Expected error deleting a missing job")
	}
}

func TestRecordSuccess_ResetsStreak(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)

	if err := repo.RecordFailure("job-1", now, 500, "server error", Diagnostics{Error: "server error", CapturedAt: now, HTTPStatus: 500}); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	validation := Validation{OK: true, CheckedAt: now}
	if err := repo.RecordSuccess("job-1", now, 200, 7, validation); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	loaded, _ := repo.GetJob("job-1")
	if loaded.LastRefreshStatus != StatusOK {
		t.Errorf("Unexpected status: %s", loaded.LastRefreshStatus)
	}
	if loaded.FailureStreak != 0 {
		t.Errorf("Success should reset failure streak, got %d", loaded.FailureStreak)
	}
	if loaded.ItemsCount != 7 {
		t.Errorf("Unexpected items count: %d", loaded.ItemsCount)
	}
	if loaded.Diagnostics != nil {
		t.Errorf("Success should clear diagnostics, got %+v", loaded.Diagnostics)
	}
	if loaded.LastValidation == nil || !loaded.LastValidation.OK {
		t.Errorf("Expected stored validation, got %+v", loaded.LastValidation)
	}
	if loaded.LastRefreshAt == nil || !loaded.LastRefreshAt.Equal(now) {
		t.Errorf("Unexpected refresh timestamp: %v", loaded.LastRefreshAt)
	}
}

func TestRecordFailure_IncrementsStreakPreservesItems(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.RecordSuccess("job-1", now, 200, 5, Validation{OK: true, CheckedAt: now}); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.RecordFailure("job-1", now, 503, "unavailable", Diagnostics{Error: "unavailable", CapturedAt: now, HTTPStatus: 503}); err != nil {
			t.Fatalf("RecordFailure failed: %v", err)
		}
	}

	loaded, _ := repo.GetJob("job-1")
	if loaded.FailureStreak != 3 {
		t.Errorf("Expected streak 3, got %d", loaded.FailureStreak)
	}
	if loaded.LastRefreshStatus != StatusFail {
		t.Errorf("Unexpected status: %s", loaded.LastRefreshStatus)
	}
	if loaded.ItemsCount != 5 {
		t.Errorf("Failure must preserve last-known-good items count, got %d", loaded.ItemsCount)
	}
	if loaded.Diagnostics == nil || loaded.Diagnostics.HTTPStatus != 503 {
		t.Errorf("Expected stored diagnostics, got %+v", loaded.Diagnostics)
	}
	if loaded.LastValidation == nil {
		t.Errorf("Failure must preserve last validation")
	}
}

func TestRecordSkip(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.RecordFailure("job-1", now, 500, "boom", Diagnostics{Error: "boom", CapturedAt: now}); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	if err := repo.RecordSkip("job-1", now, "no items after filtering", true); err != nil {
		t.Fatalf("RecordSkip failed: %v", err)
	}

	loaded, _ := repo.GetJob("job-1")
	if loaded.LastRefreshStatus != StatusSkip {
		t.Errorf("Unexpected status: %s", loaded.LastRefreshStatus)
	}
	if loaded.FailureStreak != 1 {
		t.Errorf("Skip must not touch the failure streak, got %d", loaded.FailureStreak)
	}
	if loaded.Diagnostics == nil || loaded.Diagnostics.Note != "no items after filtering" || loaded.Diagnostics.Details != "auto" {
		t.Errorf("Unexpected diagnostics: %+v", loaded.Diagnostics)
	}
	if loaded.LastRefreshAt == nil {
		t.Errorf("Skip should advance the refresh timestamp")
	}
}

func TestGetJobsDueForRefresh(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	now := time.Now().UTC().Truncate(time.Second)

	never := testJob("never-refreshed")
	if err := repo.CreateJob(&never); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	overdue := testJob("overdue")
	overdue.FeedFilename = "overdue.xml"
	if err := repo.CreateJob(&overdue); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := repo.RecordSuccess("overdue", now.Add(-2*time.Hour), 200, 1, Validation{OK: true}); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	recent := testJob("recent")
	recent.FeedFilename = "recent.xml"
	if err := repo.CreateJob(&recent); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := repo.RecordSuccess("recent", now, 200, 1, Validation{OK: true}); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	due, err := repo.GetJobsDueForRefresh(now, 10)
	if err != nil {
		t.Fatalf("GetJobsDueForRefresh failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("Expected 2 due jobs, got %d", len(due))
	}
	// Never-refreshed jobs sort first
	if due[0].ID != "never-refreshed" || due[1].ID != "overdue" {
		t.Errorf("Unexpected order: %s, %s", due[0].ID, due[1].ID)
	}

	capped, err := repo.GetJobsDueForRefresh(now, 1)
	if err != nil {
		t.Fatalf("GetJobsDueForRefresh failed: %v", err)
	}
	if len(capped) != 1 {
		t.Errorf("Expected cap of 1, got %d", len(capped))
	}
}

func TestCountJobs(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	if count, err := repo.CountJobs(); err != nil || count != 0 {
		t.Errorf("Expected 0 jobs, got %d (err %v)", count, err)
	}

	job := testJob("job-1")
	if err := repo.CreateJob(&job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if count, err := repo.CountJobs(); err != nil || count != 1 {
		t.Errorf("Expected 1 job, got %d (err %v)", count, err)
	}
}

func TestJobDue(t *testing.T) {
	now := time.Now()

	fresh := Job{RefreshInterval: 3600}
	if !fresh.Due(now) {
		t.Errorf("Never-refreshed job should be due")
	}

	at := now.Add(-time.Minute)
	recent := Job{RefreshInterval: 3600, LastRefreshAt: &at}
	if recent.Due(now) {
		t.Errorf("Recently refreshed job should not be due")
	}

	old := now.Add(-2 * time.Hour)
	overdue := Job{RefreshInterval: 3600, LastRefreshAt: &old}
	if !overdue.Due(now) {
		t.Errorf("Overdue job should be due")
	}
}
