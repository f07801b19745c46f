package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*SessionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SessionRepository{db: db}, mock, func() { _ = db.Close() }
}

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "track", "location", "level", "format",
		"start_time", "end_time", "tags", "expected_attendance", "rating",
		"capacity", "featured", "keynote", "has_slides", "has_recording",
		"registration_count",
	})
}

func TestSearchAllTermsScansSessionsAndSpeakers(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	start := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT(.|\n)*FROM sessions s(.|\n)*registration_count(.|\n)*ILIKE").
		WithArgs("%claims%", "%automation%").
		WillReturnRows(sessionRows().AddRow(
			"s-1", "Claims Automation at Scale", "How carriers automate claims.",
			"Claims", "Ballroom A", "intermediate", "panel",
			start, nil, []byte(`["claims","automation"]`),
			200, 4.5, 300, true, false, true, false,
			125,
		))
	mock.ExpectQuery("FROM session_speakers ss").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "id", "name"}).
			AddRow("s-1", "sp-1", "Jane Smith"))

	sessions, err := repo.SearchAllTerms(context.Background(), []string{"claims", "automation"})
	if err != nil {
		t.Fatalf("SearchAllTerms() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.ID != "s-1" || s.Track != "Claims" {
		t.Fatalf("session = %+v", s)
	}
	if s.StartTime == nil || !s.StartTime.Equal(start) {
		t.Fatalf("start time = %v", s.StartTime)
	}
	if len(s.Tags) != 2 || s.Tags[0] != "claims" {
		t.Fatalf("tags = %v", s.Tags)
	}
	if len(s.Speakers) != 1 || s.Speakers[0].Name != "Jane Smith" {
		t.Fatalf("speakers = %+v", s.Speakers)
	}
	if s.RegistrationCount != 125 {
		t.Fatalf("registration count = %d, want 125", s.RegistrationCount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchAllTermsEmptyTermsSkipsQuery(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	sessions, err := repo.SearchAllTerms(context.Background(), nil)
	if err != nil {
		t.Fatalf("SearchAllTerms() error = %v", err)
	}
	if sessions != nil {
		t.Fatalf("expected nil for empty terms, got %v", sessions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchAnyTermIncludesSpeakerNamePattern(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("sp.name ILIKE").
		WithArgs("%ai%", "%Jane Smith%").
		WillReturnRows(sessionRows())

	_, err := repo.SearchAnyTerm(context.Background(), []string{"ai"}, "Jane Smith")
	if err != nil {
		t.Fatalf("SearchAnyTerm() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSpeakersByIDsLoadsOtherSessions(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, title, company, bio").
		WithArgs("sp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "title", "company", "bio"}).
			AddRow("sp-1", "Jane Smith", "CTO", "Acme Insurance", "Builds underwriting platforms."))
	mock.ExpectQuery("FROM session_speakers ss").
		WithArgs("sp-1", speakerOtherSessionsLimit).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).
			AddRow("Claims Automation at Scale").
			AddRow("Underwriting with ML"))

	speakers, err := repo.SpeakersByIDs(context.Background(), []string{"sp-1"})
	if err != nil {
		t.Fatalf("SpeakersByIDs() error = %v", err)
	}
	if len(speakers) != 1 {
		t.Fatalf("expected 1 speaker, got %d", len(speakers))
	}
	if speakers[0].Company != "Acme Insurance" {
		t.Fatalf("speaker = %+v", speakers[0])
	}
	if len(speakers[0].OtherSessions) != 2 {
		t.Fatalf("other sessions = %v", speakers[0].OtherSessions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegistrationCount(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM registrations").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.RegistrationCount(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("RegistrationCount() error = %v", err)
	}
	if count != 42 {
		t.Fatalf("count = %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordSearchEventInsertsRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO search_events").
		WithArgs("e-1", "lunch options", "u-7", "meal-vector", "meal", 4, int64(120), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordSearchEvent(context.Background(), domain.SearchEvent{
		ID:         "e-1",
		Query:      "lunch options",
		UserID:     "u-7",
		Method:     domain.MethodMealVector,
		QueryType:  domain.QueryTypeMeal,
		TotalFound: 4,
		DurationMS: 120,
	})
	if err != nil {
		t.Fatalf("RecordSearchEvent() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRelatedByOverlapScansRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM sessions s").
		WithArgs("s-1", sqlmock.AnyArg(), "Claims", 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "track"}).
			AddRow("s-2", "Fraud Detection Deep Dive", "Claims"))

	related, err := repo.RelatedByOverlap(context.Background(), []string{"claims"}, "Claims", "s-1", 3)
	if err != nil {
		t.Fatalf("RelatedByOverlap() error = %v", err)
	}
	if len(related) != 1 || related[0].ID != "s-2" {
		t.Fatalf("related = %+v", related)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
