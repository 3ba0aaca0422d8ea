package mysql

import (
	"context"
	"testing"
	"time"

	"planp/internal/domain/entity"
	domainerrors "planp/internal/domain/errors"
	"planp/internal/domain/repository"
	"planp/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"user_id", "password_hash", "name", "email", "active", "created_at"}

func newUser() *entity.User {
	return &entity.User{
		UserID:       "alice_01",
		PasswordHash: "$2a$12$hash",
		Name:         "Alice",
		Email:        "alice@example.com",
		Active:       true,
	}
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO `users`").
		WithArgs("alice_01", "$2a$12$hash", "Alice", "alice@example.com", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := newUser()
	require.NoError(t, repo.Create(context.Background(), user))
	assert.False(t, user.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicates(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    *domainerrors.BaseError
	}{
		{
			name:    "duplicate user id on MySQL 8",
			message: "Duplicate entry 'alice_01' for key 'users.PRIMARY'",
			want:    domainerrors.ErrUserIDAlreadyExists,
		},
		{
			name:    "duplicate user id on MySQL 5.7",
			message: "Duplicate entry 'alice_01' for key 'PRIMARY'",
			want:    domainerrors.ErrUserIDAlreadyExists,
		},
		{
			name:    "duplicate email",
			message: "Duplicate entry 'alice@example.com' for key 'users.uk_users_email'",
			want:    domainerrors.ErrEmailAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserRepository(db)

			mock.ExpectExec("INSERT INTO `users`").
				WillReturnError(&mysqldriver.MySQLError{Number: errDuplicateEntry, Message: tt.message})

			err := repo.Create(context.Background(), newUser())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserRepository_Create_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO `users`").WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), newUser())

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
}

func TestUserRepository_FindByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE user_id = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("alice_01", "$2a$12$hash", "Alice", "alice@example.com", true, createdAt))

	user, err := repo.FindByUserID(context.Background(), "alice_01")
	require.NoError(t, err)
	assert.Equal(t, &entity.User{
		UserID:       "alice_01",
		PasswordHash: "$2a$12$hash",
		Name:         "Alice",
		Email:        "alice@example.com",
		Active:       true,
		CreatedAt:    createdAt,
	}, user)
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_FindByUserID_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnError(errors.New("db down"))

	user, err := repo.FindByUserID(context.Background(), "alice_01")
	assert.Nil(t, user)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrUserNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_Exists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE user_id = \\?").
		WithArgs("alice_01").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE email = \\?").
		WithArgs("free@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

	taken, err := repo.ExistsByUserID(context.Background(), "alice_01")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsByEmail(context.Background(), "free@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE `users` SET `password_hash`=\\? WHERE user_id = \\?").
		WithArgs("$2a$12$new", "alice_01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users` SET `password_hash`=\\? WHERE user_id = \\?").
		WithArgs("$2a$12$new", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), "alice_01", "$2a$12$new"))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "ghost", "$2a$12$new"), repository.ErrUserNotFound)
}

func TestUserRepository_DeleteByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("DELETE FROM `users` WHERE user_id = \\?").
		WithArgs("alice_01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `users` WHERE user_id = \\?").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteByUserID(context.Background(), "alice_01"))
	assert.ErrorIs(t, repo.DeleteByUserID(context.Background(), "ghost"), repository.ErrUserNotFound)
}

func TestUserRepository_DeleteAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("DELETE FROM `users`").WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.DeleteAll(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AcquireSessionMutex(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT `user_id` FROM `users` WHERE user_id = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice_01"))
	mock.ExpectQuery("SELECT `user_id` FROM `users` WHERE user_id = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	require.NoError(t, repo.AcquireSessionMutex(context.Background(), "alice_01"))
	assert.ErrorIs(t, repo.AcquireSessionMutex(context.Background(), "ghost"), repository.ErrUserNotFound)
}
