package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestMentorRepositoryIncrementStudentsGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMentorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mentors")).
		WithArgs("mentor-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.IncrementStudents(context.Background(), "mentor-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorRepositoryIncrementStudentsAtCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMentorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mentors")).
		WithArgs("mentor-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.IncrementStudents(context.Background(), "mentor-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorRepositoryDecrementStudentsFloor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMentorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mentors")).
		WithArgs("mentor-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DecrementStudents(context.Background(), "mentor-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
