package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestIdeaRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIdeaRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "status", "student_id", "college_id", "incubator_id", "reviewed_by", "reviewed_at", "feedback", "created_at", "updated_at"}).
		AddRow("idea-1", "Solar dryer", "desc", "agritech", models.StatusSubmitted, "stu-1", "col-1", nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, title, description, category, status, student_id, college_id, incubator_id, reviewed_by, reviewed_at, feedback, created_at, updated_at FROM ideas WHERE id = \$1`).
		WithArgs("idea-1").
		WillReturnRows(rows)

	idea, err := repo.FindByID(context.Background(), "idea-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, idea.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositoryTransitionStatusConditional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIdeaRepository(db)

	now := time.Now().UTC()
	update := StatusUpdate{Target: models.StatusEndorsed, ReviewedBy: "coord-1", ReviewedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ideas")).
		WithArgs("idea-1", models.StatusSubmitted, models.StatusEndorsed, "coord-1", now, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionStatus(context.Background(), "idea-1", models.StatusSubmitted, update)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositoryTransitionStatusLostRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIdeaRepository(db)

	now := time.Now().UTC()
	update := StatusUpdate{Target: models.StatusEndorsed, ReviewedBy: "coord-1", ReviewedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ideas")).
		WithArgs("idea-1", models.StatusSubmitted, models.StatusEndorsed, "coord-1", now, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(context.Background(), "idea-1", models.StatusSubmitted, update)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIdeaRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(models.StatusSubmitted, 4).
		AddRow(models.StatusEndorsed, 2)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM ideas WHERE college_id = \$1 GROUP BY status ORDER BY status`).
		WithArgs("col-1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "col-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, 4, counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
