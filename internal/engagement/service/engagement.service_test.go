package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"lawfort/internal/access"
	"lawfort/internal/engagement/model"
	"lawfort/internal/engagement/repository"
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

var (
	admin  = &access.Principal{ID: 1, Role: access.RoleAdmin}
	editor = &access.Principal{ID: 2, Role: access.RoleEditor}
	reader = &access.Principal{ID: 3, Role: access.RoleUser}
)

var (
	targetQuery  = regexp.QuoteMeta(`SELECT user_id, title, content_type, status FROM content WHERE id = $1`)
	ownerQuery   = regexp.QuoteMeta(`SELECT user_id, content_id FROM content_comments WHERE id = $1 AND status = 'Active'`)
	insertQuery  = regexp.QuoteMeta(`INSERT INTO content_comments (content_id, user_id, parent_id, body) VALUES ($1, $2, $3, $4) RETURNING id`)
	likesQuery   = regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(BOOL_OR(user_id = $2), FALSE) FROM content_likes WHERE content_id = $1`)
	unlikeQuery  = regexp.QuoteMeta(`DELETE FROM content_likes WHERE user_id = $1 AND content_id = $2`)
	likeQuery    = `INSERT INTO content_likes .* ON CONFLICT \(user_id, content_id\) DO NOTHING`
	nameQuery    = regexp.QuoteMeta(`SELECT full_name FROM users WHERE id = $1`)
	commentsCols = []string{"id", "content_id", "user_id", "author_name", "parent_id", "body", "created_at"}
)

func newService(t *testing.T) (*EngagementService, sqlmock.Sqlmock, *fakeNotifier) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	n := &fakeNotifier{}
	return NewEngagementService(repository.NewEngagementRepository(db), n), mock, n
}

func targetRow(owner int64, contentType, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "title", "content_type", "status"}).
		AddRow(owner, "Bail Reform", contentType, status)
}

func TestAddCommentNotifiesAuthor(t *testing.T) {
	svc, mock, n := newService(t)

	mock.ExpectQuery(targetQuery).WithArgs(int64(10)).WillReturnRows(targetRow(2, "Blog_Post", "Active"))
	mock.ExpectQuery(insertQuery).WithArgs(int64(10), int64(3), nil, "Well argued").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
	mock.ExpectQuery(nameQuery).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"full_name"}).AddRow("Ravi"))

	id, err := svc.AddComment(context.Background(), reader, 10, "Blog_Post", model.CommentRequest{Comment: "  Well argued "})
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	require.Len(t, n.sent, 1)
	got := n.sent[0]
	assert.Equal(t, int64(2), got.UserID)
	assert.Equal(t, notification.TypeContentComment, got.Type)
	assert.Equal(t, "New Comment on Your Blog Post", got.Title)
	assert.Equal(t, "Ravi commented on your blog post: Bail Reform", got.Message)
	assert.Equal(t, "/content/10", got.ActionURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentOnOwnContentIsSilent(t *testing.T) {
	svc, mock, n := newService(t)

	mock.ExpectQuery(targetQuery).WithArgs(int64(10)).WillReturnRows(targetRow(2, "Note", "Active"))
	mock.ExpectQuery(insertQuery).WithArgs(int64(10), int64(2), nil, "Addendum").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(78))

	_, err := svc.AddComment(context.Background(), editor, 10, "", model.CommentRequest{CommentText: "Addendum"})
	require.NoError(t, err)
	assert.Empty(t, n.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentRejections(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, nil, 10, "", model.CommentRequest{Comment: "hi"})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, err = svc.AddComment(ctx, reader, 10, "", model.CommentRequest{Comment: "   "})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
	assert.Equal(t, "Comment content is required", err.Error())

	mock.ExpectQuery(targetQuery).WithArgs(int64(11)).WillReturnRows(targetRow(2, "Blog_Post", "Deleted"))
	_, err = svc.AddComment(ctx, reader, 11, "", model.CommentRequest{Comment: "hi"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	mock.ExpectQuery(targetQuery).WithArgs(int64(12)).WillReturnRows(targetRow(2, "Note", "Active"))
	_, err = svc.AddComment(ctx, reader, 12, "Blog_Post", model.CommentRequest{Comment: "hi"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "blog route only comments on blog posts")

	mock.ExpectQuery(targetQuery).WithArgs(int64(13)).WillReturnRows(targetRow(2, "Blog_Post", "Inactive"))
	_, err = svc.AddComment(ctx, reader, 13, "", model.CommentRequest{Comment: "hi"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
	assert.Equal(t, "Cannot comment on inactive content", err.Error())

	parent := int64(500)
	mock.ExpectQuery(targetQuery).WithArgs(int64(14)).WillReturnRows(targetRow(2, "Blog_Post", "Active"))
	mock.ExpectQuery(ownerQuery).WithArgs(parent).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "content_id"}).AddRow(4, 99))
	_, err = svc.AddComment(ctx, reader, 14, "", model.CommentRequest{Comment: "hi", ParentID: &parent})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput), "parent belongs to another item")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentsListsThreadInOrder(t *testing.T) {
	svc, mock, _ := newService(t)
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(targetQuery).WithArgs(int64(10)).WillReturnRows(targetRow(2, "Blog_Post", "Active"))
	mock.ExpectQuery(`FROM content_comments cc LEFT JOIN users u .* ORDER BY cc.created_at ASC`).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(commentsCols).
			AddRow(1, 10, 3, "Ravi", nil, "First", at).
			AddRow(2, 10, 2, "Meera", 1, "Reply", at.Add(time.Minute)))

	comments, err := svc.Comments(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Nil(t, comments[0].ParentID)
	require.NotNil(t, comments[1].ParentID)
	assert.Equal(t, int64(1), *comments[1].ParentID)
	assert.Equal(t, "Meera", comments[1].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCommentOwnerOrAdmin(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()
	del := regexp.QuoteMeta(`UPDATE content_comments SET status = 'Deleted' WHERE id = $1`)

	mock.ExpectQuery(ownerQuery).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "content_id"}).AddRow(3, 10))
	err := svc.DeleteComment(ctx, editor, 5)
	assert.True(t, errors.Is(err, apperror.ErrForbidden), "editors cannot remove other people's comments")

	mock.ExpectQuery(ownerQuery).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "content_id"}).AddRow(3, 10))
	mock.ExpectExec(del).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.DeleteComment(ctx, reader, 5))

	mock.ExpectQuery(ownerQuery).WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "content_id"}).AddRow(3, 10))
	mock.ExpectExec(del).WithArgs(int64(6)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.DeleteComment(ctx, admin, 6))

	mock.ExpectQuery(ownerQuery).WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{"user_id", "content_id"}))
	err = svc.DeleteComment(ctx, admin, 7)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLike(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	mock.ExpectQuery(targetQuery).WithArgs(int64(10)).WillReturnRows(targetRow(2, "Note", "Active"))
	mock.ExpectExec(unlikeQuery).WithArgs(int64(3), int64(10)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(likeQuery).WithArgs(int64(3), int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(likesQuery).WithArgs(int64(10), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "liked"}).AddRow(4, true))

	state, err := svc.ToggleLike(ctx, reader, 10)
	require.NoError(t, err)
	assert.Equal(t, model.LikeState{Action: model.ActionLiked, IsLiked: true, LikeCount: 4}, state)

	mock.ExpectQuery(targetQuery).WithArgs(int64(10)).WillReturnRows(targetRow(2, "Note", "Active"))
	mock.ExpectExec(unlikeQuery).WithArgs(int64(3), int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(likesQuery).WithArgs(int64(10), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "liked"}).AddRow(3, false))

	state, err = svc.ToggleLike(ctx, reader, 10)
	require.NoError(t, err)
	assert.Equal(t, model.LikeState{Action: model.ActionUnliked, IsLiked: false, LikeCount: 3}, state)

	mock.ExpectQuery(targetQuery).WithArgs(int64(11)).WillReturnRows(targetRow(2, "Note", "Pending"))
	_, err = svc.ToggleLike(ctx, reader, 11)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "Content not found or inactive", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeStatusForAnonymous(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(targetQuery).WithArgs(int64(10)).WillReturnRows(targetRow(2, "Note", "Active"))
	mock.ExpectQuery(likesQuery).WithArgs(int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "liked"}).AddRow(9, false))

	state, err := svc.LikeStatus(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.False(t, state.IsLiked)
	assert.Equal(t, 9, state.LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
