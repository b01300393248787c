package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
)

func TestContentListByLevelAliases(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "level_id", "trimester", "exam_type", "pdf_url", "solution_pdf_url", "created_at", "updated_at"}).
		AddRow("e1", "فرض", nil, "2as-tm", 2, "assignment", "https://cdn/e1.pdf", nil, now, now).
		AddRow("e2", "اختبار", "وصف", "2as-se", nil, nil, nil, nil, now.Add(-time.Hour), now)
	mock.ExpectQuery(`SELECT id, title, description, level_id, trimester, exam_type, pdf_url, solution_pdf_url, created_at, updated_at FROM exams WHERE level_id IN \(\$1,\$2\) ORDER BY created_at DESC`).
		WithArgs("2as-se", "2as-tm").
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), taxonomy.KindExam, models.ContentFilter{LevelIDs: []string{"2as-se", "2as-tm"}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, taxonomy.KindExam, items[0].Kind)
	assert.Equal(t, "assignment", *items[0].ExamType)
	assert.Nil(t, items[1].Trimester)
	assert.Equal(t, "وصف", *items[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentListRelated(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery(`FROM lessons WHERE level_id IN \(\$1\) AND id <> \$2 ORDER BY created_at DESC LIMIT 3`).
		WithArgs("1as", "l1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "level_id", "created_at", "updated_at"}))

	items, err := repo.List(context.Background(), taxonomy.KindLesson, models.ContentFilter{LevelIDs: []string{"1as"}, ExcludeID: "l1", Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentListRejectsBac(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	_, err := repo.List(context.Background(), taxonomy.KindBac, models.ContentFilter{})
	require.Error(t, err)
}

func TestContentFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery(`FROM videos WHERE id = \$1 LIMIT 1`).WithArgs("v9").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), taxonomy.KindVideo, "v9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestContentCreateExam(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(`INSERT INTO exams \(created_at,description,exam_type,id,level_id,pdf_url,solution_pdf_url,title,trimester,updated_at\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	trimester := 2
	examType := "test"
	content := &models.Content{Kind: taxonomy.KindExam, Title: "اختبار", LevelID: "3as-se", Trimester: &trimester, ExamType: &examType}
	require.NoError(t, repo.Create(context.Background(), content))
	assert.NotEmpty(t, content.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(`UPDATE videos SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Content{ID: "v1", Kind: taxonomy.KindVideo, Title: "t", LevelID: "1as"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestContentDeleteAndCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(`DELETE FROM lessons WHERE id = \$1`).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lessons`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	require.NoError(t, repo.Delete(context.Background(), taxonomy.KindLesson, "l1"))
	count, err := repo.Count(context.Background(), taxonomy.KindLesson)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
