package service

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physics-portal-api/internal/dto"
	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/markdown"
)

var baseTime = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type memoryContentStore struct {
	mu      sync.Mutex
	rows    map[taxonomy.Kind][]models.Content
	lists   int
	filters []models.ContentFilter
	err     error
}

func newMemoryContentStore() *memoryContentStore {
	return &memoryContentStore{rows: map[taxonomy.Kind][]models.Content{}}
}

func (m *memoryContentStore) add(kind taxonomy.Kind, c models.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Kind = kind
	m.rows[kind] = append(m.rows[kind], c)
}

func (m *memoryContentStore) List(ctx context.Context, kind taxonomy.Kind, filter models.ContentFilter) ([]models.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	m.filters = append(m.filters, filter)
	if m.err != nil {
		return nil, m.err
	}
	allowed := map[string]bool{}
	for _, id := range filter.LevelIDs {
		allowed[id] = true
	}
	out := []models.Content{}
	for _, row := range m.rows[kind] {
		if len(allowed) > 0 && !allowed[row.LevelID] {
			continue
		}
		if filter.ExcludeID != "" && row.ID == filter.ExcludeID {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && uint64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryContentStore) FindByID(ctx context.Context, kind taxonomy.Kind, id string) (*models.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows[kind] {
		if row.ID == id {
			row := row
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryContentStore) Create(ctx context.Context, c *models.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if c.ID == "" {
		c.ID = "gen-" + string(c.Kind)
	}
	c.CreatedAt = baseTime
	c.UpdatedAt = baseTime
	m.rows[c.Kind] = append(m.rows[c.Kind], *c)
	return nil
}

func (m *memoryContentStore) Update(ctx context.Context, c *models.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows[c.Kind] {
		if row.ID == c.ID {
			m.rows[c.Kind][i] = *c
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryContentStore) Delete(ctx context.Context, kind taxonomy.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[kind]
	for i, row := range rows {
		if row.ID == id {
			m.rows[kind] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryContentStore) Count(ctx context.Context, kind taxonomy.Kind) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.rows[kind]), nil
}

type memoryBacStore struct {
	mu    sync.Mutex
	rows  []models.BacExam
	lists int
	err   error
}

func (m *memoryBacStore) List(ctx context.Context) ([]models.BacExam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.err != nil {
		return nil, m.err
	}
	out := append([]models.BacExam(nil), m.rows...)
	return out, nil
}

func (m *memoryBacStore) FindByID(ctx context.Context, id string) (*models.BacExam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id {
			row := row
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryBacStore) Create(ctx context.Context, exam *models.BacExam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exam.ID == "" {
		exam.ID = "gen-bac"
	}
	exam.CreatedAt = baseTime
	m.rows = append(m.rows, *exam)
	return nil
}

func (m *memoryBacStore) Update(ctx context.Context, exam *models.BacExam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.ID == exam.ID {
			m.rows[i] = *exam
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryBacStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryBacStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

type catalogFixture struct {
	svc     *CatalogService
	content *memoryContentStore
	bac     *memoryBacStore
	cache   *memoryCacheRepo
}

func newCatalogFixture(t *testing.T) catalogFixture {
	t.Helper()
	content := newMemoryContentStore()
	bac := &memoryBacStore{}
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewCatalogService(taxonomy.MustDefault(), content, bac, cache, markdown.New(), NewMetricsService(), nil, CatalogConfig{})
	return catalogFixture{svc: svc, content: content, bac: bac, cache: repo}
}

func at(hours int) time.Time { return baseTime.Add(time.Duration(hours) * time.Hour) }

func TestCatalogLevels(t *testing.T) {
	f := newCatalogFixture(t)
	levels := f.svc.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, "1as", levels[0].ID)
	assert.Empty(t, levels[0].Branches)
	require.Len(t, levels[1].Branches, 2)
	assert.Equal(t, "2as-se", levels[1].Branches[0].ID)
}

func TestCatalogVocabulary(t *testing.T) {
	svc := newCatalogFixture(t).svc
	vocab := svc.Vocabulary()
	require.Len(t, vocab.Trimesters, 3)
	require.Len(t, vocab.ExamTypes, 3)
	assert.Equal(t, "clipboard-list", vocab.ExamTypes[0].Icon)
	require.Len(t, vocab.BacBranches, 2)
	assert.Equal(t, "3as-mt", vocab.BacBranches[1].LevelID)
	assert.Equal(t, 1, vocab.DefaultTrimester)
	assert.Equal(t, "test", vocab.DefaultExamType)
	assert.NotEmpty(t, vocab.EmptyStateMessage)

	vocab.ExamTypes[0].Icon = "changed"
	assert.Equal(t, "clipboard-list", svc.Vocabulary().ExamTypes[0].Icon)
}

func TestCatalogLevelPageQueriesEveryAlias(t *testing.T) {
	f := newCatalogFixture(t)
	f.content.add(taxonomy.KindLesson, models.Content{ID: "l1", Title: "قوانين نيوتن", LevelID: "2as-tm", CreatedAt: at(1)})
	f.content.add(taxonomy.KindLesson, models.Content{ID: "l2", Title: "الكهرباء", LevelID: "1as", CreatedAt: at(2)})
	f.content.add(taxonomy.KindExam, models.Content{ID: "e1", Title: "فرض", LevelID: "2as-se", CreatedAt: at(3)})

	page, hit, err := f.svc.LevelPage(context.Background(), "2as")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, page.Fallback)
	assert.Equal(t, dto.LevelCounts{Lessons: 1, Exams: 1, Videos: 0}, page.Counts)
	assert.Equal(t, "l1", page.Lessons[0].ID)
	assert.Equal(t, "السنة الثانية - رياضيات وتقني رياضي", page.Lessons[0].Level)
	assert.Equal(t, taxonomy.MustDefault().YearMembers("2as"), f.content.filters[0].LevelIDs)

	_, hit, err = f.svc.LevelPage(context.Background(), "2as")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, f.content.lists)
}

func TestCatalogLevelPageFallsBackToFirstYear(t *testing.T) {
	f := newCatalogFixture(t)
	page, _, err := f.svc.LevelPage(context.Background(), "9as")
	require.NoError(t, err)
	assert.True(t, page.Fallback)
	assert.Equal(t, "1as", page.Level.ID)
	assert.NotNil(t, page.Lessons)
}

func TestCatalogLevelPageStorageFailure(t *testing.T) {
	f := newCatalogFixture(t)
	f.content.err = assert.AnError
	_, _, err := f.svc.LevelPage(context.Background(), "1as")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestCatalogGroupedUsesCachedList(t *testing.T) {
	f := newCatalogFixture(t)
	f.content.add(taxonomy.KindExam, models.Content{ID: "e1", Title: "a", LevelID: "3as-se", Trimester: ptr(2), CreatedAt: at(1)})

	tree, hit, err := f.svc.Grouped(context.Background(), taxonomy.KindExam, dto.GroupedQuery{Branches: true})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, tree.Total)

	tree, hit, err = f.svc.Grouped(context.Background(), taxonomy.KindExam, dto.GroupedQuery{Branches: true, Breakdown: true})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, tree.Total)
	assert.Equal(t, 1, f.content.lists)
}

func TestCatalogGroupedRejectsBac(t *testing.T) {
	f := newCatalogFixture(t)
	_, _, err := f.svc.Grouped(context.Background(), taxonomy.KindBac, dto.GroupedQuery{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestCatalogBacBoard(t *testing.T) {
	f := newCatalogFixture(t)
	f.bac.rows = []models.BacExam{
		{ID: "b1", Title: "bac 2023", Year: 2023, Branch: "se", CreatedAt: at(1)},
		{ID: "b2", Title: "bac 2022", Year: 2022, Branch: "mt", CreatedAt: at(2)},
	}
	board, _, err := f.svc.Bac(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, board.Total)
	require.Len(t, board.Tabs, 2)
	assert.Equal(t, "3as-se", board.Tabs[0].LevelID)
}

func TestCatalogRecentMergesNewestSix(t *testing.T) {
	f := newCatalogFixture(t)
	for i, kind := range taxonomy.ContentKinds {
		for j := 0; j < 4; j++ {
			id := string(kind) + "-" + string(rune('a'+j))
			f.content.add(kind, models.Content{ID: id, Title: id, LevelID: "1as", CreatedAt: at(j*3 + i)})
		}
	}

	items, _, err := f.svc.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 6)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt))
	}
	assert.Equal(t, "video-d", items[0].ID)
	for _, filter := range f.content.filters {
		assert.EqualValues(t, 3, filter.Limit)
	}
}

func TestMergeRecentKeepsKindOrderOnTies(t *testing.T) {
	groups := [][]taxonomy.Item{
		{{ID: "lesson", CreatedAt: baseTime}},
		{{ID: "exam", CreatedAt: baseTime}},
		{{ID: "video", CreatedAt: baseTime}},
	}
	merged := mergeRecent(groups, 2)
	require.Len(t, merged, 2)
	assert.Equal(t, "lesson", merged[0].ID)
	assert.Equal(t, "exam", merged[1].ID)
}

func TestCatalogDetailRendersDescription(t *testing.T) {
	f := newCatalogFixture(t)
	f.content.add(taxonomy.KindExam, models.Content{
		ID: "e1", Title: "فرض", Description: ptr("**مهم**"), LevelID: "2as-se",
		PDFURL: ptr("http://files/e1.pdf"), CreatedAt: at(1),
	})

	detail, hit, err := f.svc.Detail(context.Background(), taxonomy.KindExam, "e1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, detail.DescriptionHTML, "<strong>مهم</strong>")
	assert.Equal(t, 1, detail.Trimester)
	assert.Equal(t, "test", detail.ExamType)
	assert.NotEmpty(t, detail.ExamTypeLabel)
	assert.Equal(t, "http://files/e1.pdf", detail.PDFURL)
	require.NotNil(t, detail.Placement)
	assert.Equal(t, dto.Placement{Year: "2as", Branch: "2as-se"}, *detail.Placement)

	_, hit, err = f.svc.Detail(context.Background(), taxonomy.KindExam, "e1")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCatalogDetailBacMapsBranchLevel(t *testing.T) {
	f := newCatalogFixture(t)
	f.bac.rows = []models.BacExam{{ID: "b1", Title: "bac", Year: 2021, Branch: "mt", CreatedAt: at(1)}}

	detail, _, err := f.svc.Detail(context.Background(), taxonomy.KindBac, "b1")
	require.NoError(t, err)
	assert.Equal(t, "3as-mt", detail.LevelID)
	assert.Equal(t, 2021, detail.Year)
	assert.NotEmpty(t, detail.Description)
	assert.NotEmpty(t, detail.DescriptionHTML)
}

func TestCatalogDetailNotFound(t *testing.T) {
	f := newCatalogFixture(t)
	_, _, err := f.svc.Detail(context.Background(), taxonomy.KindLesson, "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestCatalogRelatedExcludesCurrent(t *testing.T) {
	f := newCatalogFixture(t)
	for i, id := range []string{"l1", "l2", "l3", "l4", "l5"} {
		f.content.add(taxonomy.KindLesson, models.Content{ID: id, Title: id, LevelID: "1as", CreatedAt: at(i)})
	}
	f.content.add(taxonomy.KindLesson, models.Content{ID: "other", Title: "x", LevelID: "2as", CreatedAt: at(9)})

	items, _, err := f.svc.Related(context.Background(), taxonomy.KindLesson, "l5")
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.NotEqual(t, "l5", item.ID)
		assert.Equal(t, "1as", item.LevelID)
	}
}

func TestCatalogRelatedBacSameBranch(t *testing.T) {
	f := newCatalogFixture(t)
	f.bac.rows = []models.BacExam{
		{ID: "b1", Title: "a", Year: 2023, Branch: "se"},
		{ID: "b2", Title: "b", Year: 2022, Branch: "se"},
		{ID: "b3", Title: "c", Year: 2022, Branch: "mt"},
	}
	items, _, err := f.svc.Related(context.Background(), taxonomy.KindBac, "b1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b2", items[0].ID)

	_, _, err = f.svc.Related(context.Background(), taxonomy.KindBac, "nope")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestCatalogSearch(t *testing.T) {
	f := newCatalogFixture(t)
	f.content.add(taxonomy.KindLesson, models.Content{ID: "l1", Title: "الطاقة الحركية", LevelID: "1as"})
	f.content.add(taxonomy.KindVideo, models.Content{ID: "v1", Title: "شرح الطاقة", LevelID: "2as"})
	f.bac.rows = []models.BacExam{{ID: "b1", Title: "الطاقة النووية", Year: 2020, Branch: "se"}}

	results, hit, err := f.svc.Search(context.Background(), "الطاقة", taxonomy.FilterAll)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, results, 3)
	assert.Equal(t, "/content/bac/b1", results[2].Link)

	results, hit, err = f.svc.Search(context.Background(), "الطاقة", taxonomy.Filter(taxonomy.KindVideo))
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, results, 1)
	assert.Equal(t, "v1", results[0].ID)

	results, _, err = f.svc.Search(context.Background(), "   ", taxonomy.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCatalogInvalidateDropsCachedReads(t *testing.T) {
	f := newCatalogFixture(t)
	_, _, err := f.svc.Recent(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, f.cache.entries)

	f.svc.Invalidate(context.Background())
	assert.Empty(t, f.cache.entries)
	assert.Equal(t, []string{catalogCachePattern}, f.cache.invalidations)
}
