package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lawfort/internal/access"
	application "lawfort/internal/application/model"
	"lawfort/internal/audit"
	"lawfort/internal/content/model"
	"lawfort/internal/content/repository"
	"lawfort/internal/content/service"
	"lawfort/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFinder struct {
	calls int
	app   *application.Application
}

func (f *countingFinder) HasApplied(ctx context.Context, userID, positionID int64) (*application.Application, error) {
	f.calls++
	return f.app, nil
}

func setup(t *testing.T, finder ApplicationFinder) (http.Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewContentHandler(service.NewContentService(repository.NewContentRepository(db), audit.NewLog(db)), finder)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := &access.Principal{ID: 3, Role: access.RoleUser}
			next.ServeHTTP(w, req.WithContext(middleware.WithPrincipal(req.Context(), p)))
		})
	})
	r.Get("/api/jobs/{id}", h.Get(model.Jobs))
	return r, mock
}

func expectJob(mock sqlmock.Sqlmock, id int64, applied bool) {
	deadline := time.Now().AddDate(0, 0, 5)
	mock.ExpectQuery(`FROM content c LEFT JOIN users u ON u.id = c.user_id WHERE c.id = \$1`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "author_name", "content_type", "title", "summary", "body",
			"tags", "category", "featured_image", "status", "is_featured", "views", "created_at", "updated_at",
			"company_name", "location", "position_type", "salary_range", "experience_required",
			"application_deadline", "contact_email", "authors", "abstract", "keywords", "instructor",
			"duration", "file_url",
		}).AddRow(id, 2, "Editor", model.TypeJob, "Associate", "", "body",
			"", "Corporate", "", model.StatusActive, false, 0, time.Now(), time.Now(),
			"Firm", "Delhi", "Full-time", "", "",
			deadline, "", "", "", "", "",
			"", ""))
	mock.ExpectExec(`UPDATE content SET views = views \+ 1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT content_id FROM saved_content`).WillReturnRows(sqlmock.NewRows([]string{"content_id"}))
	rows := sqlmock.NewRows([]string{"position_id"})
	if applied {
		rows.AddRow(id)
	}
	mock.ExpectQuery(`SELECT position_id FROM applications`).WillReturnRows(rows)
}

func TestGetPostingWithoutApplicationSkipsLookup(t *testing.T) {
	finder := &countingFinder{}
	r, mock := setup(t, finder)
	expectJob(mock, 40, false)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/jobs/40", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		HasApplied  bool             `json:"has_applied"`
		Application *json.RawMessage `json:"application"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.HasApplied)
	assert.Nil(t, res.Application)
	assert.Equal(t, 0, finder.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostingFetchesApplicationOnce(t *testing.T) {
	finder := &countingFinder{app: &application.Application{ID: 12, PositionID: 41, UserID: 3, Status: "Pending"}}
	r, mock := setup(t, finder)
	expectJob(mock, 41, true)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/jobs/41", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		HasApplied  bool `json:"has_applied"`
		Application struct {
			ID     int64  `json:"application_id"`
			Status string `json:"status"`
		} `json:"application"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.HasApplied)
	assert.Equal(t, int64(12), res.Application.ID)
	assert.Equal(t, 1, finder.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
