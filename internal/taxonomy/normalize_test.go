package taxonomy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	tax := MustDefault()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	item := tax.Normalize(KindExam, Record{ID: "e1", Title: "فرض", LevelID: "2as-tm", CreatedAt: created})

	assert.Equal(t, 1, item.Trimester)
	assert.Equal(t, "test", item.ExamType)
	assert.Equal(t, "", item.Description)
	assert.Equal(t, "السنة الثانية - رياضيات وتقني رياضي", item.Level)
	assert.Equal(t, created, item.CreatedAt)
	assert.Equal(t, KindExam, item.Kind)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	tax := MustDefault()

	item := tax.Normalize(KindExam, Record{
		ID:          "e2",
		LevelID:     "1as",
		Description: strPtr("سلسلة"),
		Trimester:   intPtr(3),
		ExamType:    strPtr("exercises"),
	})

	assert.Equal(t, 3, item.Trimester)
	assert.Equal(t, "exercises", item.ExamType)
	assert.Equal(t, "سلسلة", item.Description)
}

func TestNormalizeLessonHasNoExamType(t *testing.T) {
	tax := MustDefault()

	item := tax.Normalize(KindLesson, Record{ID: "l1", LevelID: "3as-se", ExamType: strPtr("test")})

	assert.Empty(t, item.ExamType)
	assert.Equal(t, 1, item.Trimester)
}

func TestNormalizeBac(t *testing.T) {
	tax := MustDefault()

	item := tax.NormalizeBac(BacRecord{ID: "b1", Title: "بكالوريا 2023", Year: 2023, Branch: "mt", PDFURL: strPtr("https://cdn/bac.pdf")})
	assert.Equal(t, "3as-mt", item.LevelID)
	assert.Equal(t, "السنة الثالثة - رياضيات وتقني رياضي", item.Level)
	assert.Equal(t, "بكالوريا 2023 - شعبة الرياضيات والتقني رياضي", item.Description)
	assert.Equal(t, "https://cdn/bac.pdf", item.PDFURL)
	assert.Empty(t, item.SolutionPDFURL)

	described := tax.NormalizeBac(BacRecord{ID: "b2", Year: 2022, Branch: "se", Description: strPtr("موضوع")})
	assert.Equal(t, "موضوع", described.Description)
	assert.Equal(t, "3as-se", described.LevelID)
}

func TestBuildBac(t *testing.T) {
	tax := MustDefault()
	items := []BacItem{
		tax.NormalizeBac(BacRecord{ID: "1", Year: 2024, Branch: "se"}),
		tax.NormalizeBac(BacRecord{ID: "2", Year: 2024, Branch: "mt"}),
		tax.NormalizeBac(BacRecord{ID: "3", Year: 2021, Branch: "se"}),
		tax.NormalizeBac(BacRecord{ID: "4", Year: 2019, Branch: "lettres"}),
	}

	board := tax.BuildBac(items)

	assert.Equal(t, 3, board.Total)
	assert.Equal(t, []int{2024, 2021}, board.Years)
	if assert.Len(t, board.Tabs, 2) {
		assert.Equal(t, "se", board.Tabs[0].ID)
		assert.Equal(t, 2, board.Tabs[0].Count)
		assert.Equal(t, "1", board.Tabs[0].Items[0].ID)
		assert.Equal(t, "3", board.Tabs[0].Items[1].ID)
		assert.Equal(t, 1, board.Tabs[1].Count)
	}
}

func TestBuildBacEmpty(t *testing.T) {
	board := MustDefault().BuildBac(nil)

	assert.Equal(t, 0, board.Total)
	for _, tab := range board.Tabs {
		assert.True(t, tab.EmptyState)
		assert.NotNil(t, tab.Items)
	}
}
