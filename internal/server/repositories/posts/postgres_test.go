package posts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkovs/linkup/internal/common"
	"github.com/avolkovs/linkup/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p-1", time.Now())
	mock.ExpectQuery(`INSERT\s+INTO\s+posts`).
		WithArgs("u-1", "hello", "first post").
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), &models.Post{AuthorID: "u-1", Title: "hello", Content: "first post"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "p-1" || got.AuthorID != "u-1" {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestCreate_UnknownAuthor(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+posts`).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})

	_, err := repo.Create(context.Background(), &models.Post{AuthorID: "ghost", Title: "t", Content: "c"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestListByAuthor(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "author_id", "title", "content", "created_at"}).
		AddRow("p-2", "u-1", "second", "more", now).
		AddRow("p-1", "u-1", "first", "text", now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT.+FROM\s+posts`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.ListByAuthor(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByAuthor error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p-2" {
		t.Fatalf("unexpected posts: %+v", got)
	}
}

func TestListByAuthor_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT.+FROM\s+posts`).
		WithArgs("u-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "title", "content", "created_at"}))

	got, err := repo.ListByAuthor(context.Background(), "u-9")
	if err != nil {
		t.Fatalf("ListByAuthor error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no posts, got %+v", got)
	}
}
