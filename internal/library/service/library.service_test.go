package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"lawfort/internal/access"
	"lawfort/internal/library/model"
	"lawfort/internal/library/repository"
	notification "lawfort/internal/notification/model"
	"lawfort/pkg/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct{ sent []notification.New }

func (f *fakeNotifier) Notify(_ context.Context, n notification.New) error {
	f.sent = append(f.sent, n)
	return nil
}

var reader = &access.Principal{ID: 3, Role: access.RoleUser}

var (
	targetQuery = regexp.QuoteMeta(`SELECT user_id, title, content_type, status FROM content WHERE id = $1`)
	saveQuery   = `INSERT INTO saved_content .* ON CONFLICT \(user_id, content_id\) DO NOTHING RETURNING id`
)

func newService(t *testing.T) (*LibraryService, sqlmock.Sqlmock, *fakeNotifier) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	n := &fakeNotifier{}
	return NewLibraryService(repository.NewLibraryRepository(db), n), mock, n
}

func targetRow(owner int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "title", "content_type", "status"}).
		AddRow(owner, "Bail Reform", "Blog_Post", status)
}

func TestSaveNotifiesAuthor(t *testing.T) {
	svc, mock, n := newService(t)

	mock.ExpectQuery(targetQuery).WithArgs(int64(10)).WillReturnRows(targetRow(2, "Active"))
	mock.ExpectQuery(saveQuery).WithArgs(int64(3), int64(10), "read later").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT full_name FROM users WHERE id = $1`)).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"full_name"}).AddRow("Ravi"))

	id, err := svc.Save(context.Background(), reader, model.SaveRequest{ContentID: 10, Notes: " read later "})
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)
	require.Len(t, n.sent, 1)
	assert.Equal(t, int64(2), n.sent[0].UserID)
	assert.Equal(t, notification.TypeContentSaved, n.sent[0].Type)
	assert.Equal(t, "Ravi saved your blog post: Bail Reform", n.sent[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTwiceConflicts(t *testing.T) {
	svc, mock, n := newService(t)

	mock.ExpectQuery(targetQuery).WillReturnRows(targetRow(3, "Active"))
	mock.ExpectQuery(saveQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Save(context.Background(), reader, model.SaveRequest{ContentID: 10})
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.Empty(t, n.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveOwnContentIsSilent(t *testing.T) {
	svc, mock, n := newService(t)

	mock.ExpectQuery(targetQuery).WillReturnRows(targetRow(3, "Active"))
	mock.ExpectQuery(saveQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	_, err := svc.Save(context.Background(), reader, model.SaveRequest{ContentID: 10})
	require.NoError(t, err)
	assert.Empty(t, n.sent)
}

func TestSaveRejectsUnavailable(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, nil, model.SaveRequest{ContentID: 10})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, err = svc.Save(ctx, reader, model.SaveRequest{})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	mock.ExpectQuery(targetQuery).WillReturnRows(sqlmock.NewRows([]string{"user_id", "title", "content_type", "status"}))
	_, err = svc.Save(ctx, reader, model.SaveRequest{ContentID: 10})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	mock.ExpectQuery(targetQuery).WillReturnRows(targetRow(2, "Deleted"))
	_, err = svc.Save(ctx, reader, model.SaveRequest{ContentID: 10})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	mock.ExpectQuery(targetQuery).WillReturnRows(targetRow(2, "Inactive"))
	_, err = svc.Save(ctx, reader, model.SaveRequest{ContentID: 10})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnsave(t *testing.T) {
	svc, mock, _ := newService(t)
	del := regexp.QuoteMeta(`DELETE FROM saved_content WHERE user_id = $1 AND content_id = $2`)

	mock.ExpectExec(del).WithArgs(int64(3), int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.Unsave(context.Background(), 3, 10))

	mock.ExpectExec(del).WithArgs(int64(3), int64(11)).WillReturnResult(sqlmock.NewResult(0, 0))
	err := svc.Unsave(context.Background(), 3, 11)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersAndSorts(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM saved_content s .* AND c.content_type = \$2 AND \(c.title ILIKE \$3`).
		WithArgs(int64(3), "Note", "%bail%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY u.full_name ASC LIMIT \$4 OFFSET \$5`).
		WithArgs(int64(3), "Note", "%bail%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content_id", "notes", "saved_at", "title", "summary", "content_type", "category", "author", "created_at"}).
			AddRow(1, 10, "", time.Now(), "Bail", "", "Note", "Criminal", "Ravi", time.Now()))

	res, err := svc.List(context.Background(), 3, model.Filter{ContentType: "Note", Search: "bail", Sort: "author"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 20, res.Limit)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Ravi", res.Entries[0].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSearchMatchesWildcardsLiterally(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM saved_content s .* \(c.title ILIKE \$2 ESCAPE '\\'`).
		WithArgs(int64(3), `%100\%\_sure%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY`).
		WithArgs(int64(3), `%100\%\_sure%`, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content_id", "notes", "saved_at", "title", "summary", "content_type", "category", "author", "created_at"}))

	res, err := svc.List(context.Background(), 3, model.Filter{Search: "100%_sure"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
