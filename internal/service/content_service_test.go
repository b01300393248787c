package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
)

const pdfBody = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"

type discardRecorder struct{ urls []string }

func (d *discardRecorder) Discard(urls ...string) {
	for _, u := range urls {
		if u != "" {
			d.urls = append(d.urls, u)
		}
	}
}

type invalidationCounter struct{ calls int }

func (i *invalidationCounter) Invalidate(ctx context.Context) { i.calls++ }

func pdfUpload(name string) *models.Upload {
	return &models.Upload{Filename: name, ContentType: "application/pdf", Size: int64(len(pdfBody)), Body: strings.NewReader(pdfBody)}
}

type contentFixture struct {
	svc     *ContentService
	repo    *memoryContentStore
	discard *discardRecorder
	catalog *invalidationCounter
}

func newContentFixture(t *testing.T, policy UploadPolicy) contentFixture {
	t.Helper()
	repo := newMemoryContentStore()
	discard := &discardRecorder{}
	catalog := &invalidationCounter{}
	svc := NewContentService(taxonomy.MustDefault(), repo, newTestStore(t), discard, catalog, nil, policy, nil, nil)
	return contentFixture{svc: svc, repo: repo, discard: discard, catalog: catalog}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, appErrors.FromError(err).Status, err.Error())
}

func TestContentCreateExamAppliesDefaults(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	content, err := f.svc.Create(context.Background(), taxonomy.KindExam, models.ContentInput{
		Title:   "  فرض الفصل  ",
		LevelID: "2as-tm",
	}, models.ContentUploads{PDF: pdfUpload("devoir 1.pdf"), Solution: pdfUpload("corrige.pdf")})
	require.NoError(t, err)

	assert.Equal(t, "فرض الفصل", content.Title)
	assert.Nil(t, content.Description)
	require.NotNil(t, content.Trimester)
	assert.Equal(t, 1, *content.Trimester)
	require.NotNil(t, content.ExamType)
	assert.Equal(t, "test", *content.ExamType)
	require.NotNil(t, content.PDFURL)
	assert.Equal(t, "http://localhost:8080/files/pdfs/exams/1725177600000-devoir_1.pdf", *content.PDFURL)
	require.NotNil(t, content.SolutionPDFURL)
	assert.Contains(t, *content.SolutionPDFURL, "/solutions/")
	assert.Equal(t, 1, f.catalog.calls)
	assert.Len(t, f.repo.rows[taxonomy.KindExam], 1)
}

func TestContentCreateValidation(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	ctx := context.Background()

	_, err := f.svc.Create(ctx, taxonomy.KindLesson, models.ContentInput{Title: " ", LevelID: "1as"}, models.ContentUploads{PDF: pdfUpload("a.pdf")})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, taxonomy.KindLesson, models.ContentInput{Title: "x", LevelID: "4as"}, models.ContentUploads{PDF: pdfUpload("a.pdf")})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, taxonomy.KindLesson, models.ContentInput{Title: "x", LevelID: "1as", Trimester: 7}, models.ContentUploads{PDF: pdfUpload("a.pdf")})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, taxonomy.KindExam, models.ContentInput{Title: "x", LevelID: "1as", ExamType: "quiz"}, models.ContentUploads{PDF: pdfUpload("a.pdf")})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, taxonomy.KindLesson, models.ContentInput{Title: "x", LevelID: "1as"}, models.ContentUploads{})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, taxonomy.KindVideo, models.ContentInput{Title: "x", LevelID: "1as"}, models.ContentUploads{})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, taxonomy.KindBac, models.ContentInput{Title: "x", LevelID: "1as"}, models.ContentUploads{})
	assertStatus(t, err, http.StatusBadRequest)

	assert.Zero(t, f.catalog.calls)
}

func TestContentCreateVideo(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	content, err := f.svc.Create(context.Background(), taxonomy.KindVideo, models.ContentInput{
		Title:      "تجربة",
		LevelID:    "3as-se",
		Trimester:  2,
		YouTubeURL: "https://www.youtube.com/watch?v=abc",
	}, models.ContentUploads{})
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", *content.YouTubeURL)
	assert.Nil(t, content.PDFURL)
	assert.Equal(t, 2, *content.Trimester)
}

func TestContentUploadRules(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{MaxBytes: 16})
	ctx := context.Background()
	input := models.ContentInput{Title: "x", LevelID: "1as"}

	big := pdfUpload("big.pdf")
	_, err := f.svc.Create(ctx, taxonomy.KindLesson, input, models.ContentUploads{PDF: big})
	assertStatus(t, err, http.StatusRequestEntityTooLarge)

	undeclared := &models.Upload{Filename: "big.pdf", Body: strings.NewReader(pdfBody)}
	_, err = f.svc.Create(ctx, taxonomy.KindLesson, input, models.ContentUploads{PDF: undeclared})
	assertStatus(t, err, http.StatusRequestEntityTooLarge)

	g := newContentFixture(t, UploadPolicy{})
	text := &models.Upload{Filename: "notes.pdf", ContentType: "application/pdf", Size: 5, Body: strings.NewReader("hello")}
	_, err = g.svc.Create(ctx, taxonomy.KindLesson, input, models.ContentUploads{PDF: text})
	assertStatus(t, err, http.StatusUnsupportedMediaType)

	word := &models.Upload{Filename: "a.docx", ContentType: "application/msword", Size: 5, Body: strings.NewReader(pdfBody)}
	_, err = g.svc.Create(ctx, taxonomy.KindLesson, input, models.ContentUploads{PDF: word})
	assertStatus(t, err, http.StatusUnsupportedMediaType)

	_, err = g.svc.Create(ctx, taxonomy.KindLesson, input, models.ContentUploads{PDF: pdfUpload("a.pdf"), Solution: pdfUpload("b.pdf")})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestContentCreateDiscardsFirstFileWhenSecondFails(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	bad := &models.Upload{Filename: "s.pdf", Size: 5, Body: strings.NewReader("plain")}
	_, err := f.svc.Create(context.Background(), taxonomy.KindExam, models.ContentInput{Title: "x", LevelID: "1as"},
		models.ContentUploads{PDF: pdfUpload("a.pdf"), Solution: bad})
	assertStatus(t, err, http.StatusUnsupportedMediaType)
	require.Len(t, f.discard.urls, 1)
	assert.Contains(t, f.discard.urls[0], "/exams/")
}

func TestContentUpdateReplacesFile(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	old := "http://localhost:8080/files/pdfs/lessons/1-old.pdf"
	f.repo.add(taxonomy.KindLesson, models.Content{ID: "l1", Title: "old", LevelID: "1as", PDFURL: &old})

	updated, err := f.svc.Update(context.Background(), taxonomy.KindLesson, "l1",
		models.ContentInput{Title: "new", LevelID: "1as", Description: "وصف"},
		models.ContentUploads{PDF: pdfUpload("new.pdf")})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "وصف", *updated.Description)
	assert.NotEqual(t, old, *updated.PDFURL)
	assert.Equal(t, []string{old}, f.discard.urls)

	kept, err := f.svc.Update(context.Background(), taxonomy.KindLesson, "l1",
		models.ContentInput{Title: "again", LevelID: "1as"}, models.ContentUploads{})
	require.NoError(t, err)
	assert.Equal(t, *updated.PDFURL, *kept.PDFURL)
	assert.Len(t, f.discard.urls, 1)
	assert.Equal(t, 2, f.catalog.calls)
}

func TestContentUpdateMissing(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	_, err := f.svc.Update(context.Background(), taxonomy.KindLesson, "nope", models.ContentInput{Title: "x", LevelID: "1as"}, models.ContentUploads{})
	assertStatus(t, err, http.StatusNotFound)
}

func TestContentDeleteDiscardsFiles(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	pdf, sol := "http://x/pdf", "http://x/sol"
	f.repo.add(taxonomy.KindExam, models.Content{ID: "e1", Title: "x", LevelID: "1as", PDFURL: &pdf, SolutionPDFURL: &sol})

	require.NoError(t, f.svc.Delete(context.Background(), taxonomy.KindExam, "e1"))
	assert.Equal(t, []string{pdf, sol}, f.discard.urls)
	assert.Empty(t, f.repo.rows[taxonomy.KindExam])
	assert.Equal(t, 1, f.catalog.calls)

	assertStatus(t, f.svc.Delete(context.Background(), taxonomy.KindExam, "e1"), http.StatusNotFound)
}

func TestContentListFailure(t *testing.T) {
	f := newContentFixture(t, UploadPolicy{})
	f.repo.err = assert.AnError
	_, err := f.svc.List(context.Background(), taxonomy.KindLesson)
	assertStatus(t, err, http.StatusInternalServerError)
}
