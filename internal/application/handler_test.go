package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lawfort/internal/access"
	"lawfort/internal/application/repository"
	"lawfort/internal/application/service"
	"lawfort/internal/audit"
	content "lawfort/internal/content/model"
	contentrepo "lawfort/internal/content/repository"
	"lawfort/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, maxBytes int64) (http.Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewApplicationService(repository.NewApplicationRepository(db), contentrepo.NewContentRepository(db), nil,
		audit.NewLog(db), service.NewResumeStore(t.TempDir(), "http://files.test", maxBytes),
		service.NewPaperStore(t.TempDir(), "http://files.test", maxBytes))
	h := NewApplicationHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := &access.Principal{ID: 3, Role: access.RoleUser}
			next.ServeHTTP(w, req.WithContext(middleware.WithPrincipal(req.Context(), p)))
		})
	})
	r.Post("/api/jobs/{id}/apply", h.Apply(content.Jobs))
	r.Post("/api/upload/resume", h.UploadResume)
	r.Post("/api/research-papers/submit/upload-pdf", h.UploadPaper)
	r.Put("/api/job-applications/{id}/status", h.UpdateStatus(content.Jobs))
	return r, mock
}

func multipartBody(t *testing.T, filename, data string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadResumeHandler(t *testing.T) {
	r, _ := setup(t, 5<<20)
	body, ctype := multipartBody(t, "cv.pdf", "%PDF-1.7\n%%EOF\n")

	req := httptest.NewRequest(http.MethodPost, "/api/upload/resume", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Success bool   `json:"success"`
		FileURL string `json:"file_url"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.FileURL, "http://files.test/uploads/resumes/3_"))
	assert.True(t, strings.HasSuffix(res.FileURL, "_cv.pdf"))
}

func TestUploadResumeHandlerRejects(t *testing.T) {
	r, _ := setup(t, 1024)

	body, ctype := multipartBody(t, "cv.pdf", "%PDF-1.7\n"+strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/resume", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body, ctype = multipartBody(t, "cv.txt", "hello")
	req = httptest.NewRequest(http.MethodPost, "/api/upload/resume", body)
	req.Header.Set("Content-Type", ctype)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Only PDF files are allowed"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/upload/resume", strings.NewReader("plain")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadResumeHandlerSizeBoundary(t *testing.T) {
	const limit = 2048
	r, _ := setup(t, limit)
	head := "%PDF-1.7\n"

	body, ctype := multipartBody(t, "cv.pdf", head+strings.Repeat("x", limit-len(head)))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/resume", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, "a file of exactly the limit is accepted: %s", rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"file_size":2048`)

	body, ctype = multipartBody(t, "cv.pdf", head+strings.Repeat("x", limit-len(head)+1))
	req = httptest.NewRequest(http.MethodPost, "/api/upload/resume", body)
	req.Header.Set("Content-Type", ctype)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "File too large")
}

func TestUploadPaperHandler(t *testing.T) {
	r, _ := setup(t, 10<<20)
	body, ctype := multipartBody(t, "thesis.pdf", "%PDF-1.7\n%%EOF\n")

	req := httptest.NewRequest(http.MethodPost, "/api/research-papers/submit/upload-pdf", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		FileURL  string `json:"file_url"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, strings.HasPrefix(res.Filename, "submission_3_"))
	assert.True(t, strings.HasPrefix(res.FileURL, "http://files.test/uploads/research_papers/submission_3_"))
}

func TestApplyHandlerRequiresResume(t *testing.T) {
	r, _ := setup(t, 5<<20)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/jobs/40/apply", strings.NewReader(`{"cover_letter":"hi"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Resume URL is required"}`, rr.Body.String())
}

func TestUpdateStatusHandlerNotFound(t *testing.T) {
	r, mock := setup(t, 5<<20)
	mock.ExpectQuery(`WHERE a.id = \$1`).WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/job-applications/9/status", strings.NewReader(`{"status":"Hired"}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
