package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/physics-portal-api/internal/dto"
	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
)

const (
	catalogCachePattern = "catalog:*"
	recentPerKind       = 3
	recentLimit         = 6
	relatedLimit        = 3
)

type contentReader interface {
	List(ctx context.Context, kind taxonomy.Kind, filter models.ContentFilter) ([]models.Content, error)
	FindByID(ctx context.Context, kind taxonomy.Kind, id string) (*models.Content, error)
}

type bacReader interface {
	List(ctx context.Context) ([]models.BacExam, error)
	FindByID(ctx context.Context, id string) (*models.BacExam, error)
}

type markdownRenderer interface {
	Render(src string) (string, error)
}

// CatalogConfig carries the stale times of catalog reads.
type CatalogConfig struct {
	ListTTL time.Duration
	ItemTTL time.Duration
}

// CatalogService serves the public read side of the portal. Raw lists are
// fetched once per kind and cached; grouping and search run on the cached
// snapshot for every request.
type CatalogService struct {
	tax      *taxonomy.Taxonomy
	content  contentReader
	bac      bacReader
	cache    *CacheService
	markdown markdownRenderer
	metrics  *MetricsService
	logger   *zap.Logger
	config   CatalogConfig
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(tax *taxonomy.Taxonomy, content contentReader, bac bacReader, cache *CacheService, md markdownRenderer, metrics *MetricsService, logger *zap.Logger, cfg CatalogConfig) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 5 * time.Minute
	}
	if cfg.ItemTTL <= 0 {
		cfg.ItemTTL = 10 * time.Minute
	}
	return &CatalogService{tax: tax, content: content, bac: bac, cache: cache, markdown: md, metrics: metrics, logger: logger, config: cfg}
}

// Levels returns the year cards in declaration order.
func (s *CatalogService) Levels() []dto.LevelCard {
	years := s.tax.Years()
	cards := make([]dto.LevelCard, 0, len(years))
	for _, y := range years {
		cards = append(cards, levelCard(y))
	}
	return cards
}

// Vocabulary exposes the trimester, exam-type and bac labels of the taxonomy.
func (s *CatalogService) Vocabulary() dto.Vocabulary {
	return dto.Vocabulary{
		Trimesters:        s.tax.Trimesters(),
		ExamTypes:         s.tax.ExamTypes(),
		BacBranches:       s.tax.BacBranches(),
		DefaultTrimester:  s.tax.DefaultTrimester(),
		DefaultExamType:   s.tax.DefaultExamType(),
		EmptyStateMessage: s.tax.EmptyStateMessage(),
	}
}

// LevelPage lists lessons, exams and videos of a year. Unknown year ids are
// served the first configured year with Fallback set.
func (s *CatalogService) LevelPage(ctx context.Context, yearID string) (*dto.LevelPage, bool, error) {
	year := s.tax.YearOrFirst(yearID)
	page, hit, err := remember(ctx, s.cache, "catalog:level:"+year.ID, s.config.ListTTL, func(ctx context.Context) (*dto.LevelPage, error) {
		filter := models.ContentFilter{LevelIDs: s.tax.YearMembers(year.ID)}
		var lessons, exams, videos []taxonomy.Item
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) { lessons, err = s.fetch(gctx, taxonomy.KindLesson, filter); return })
		g.Go(func() (err error) { exams, err = s.fetch(gctx, taxonomy.KindExam, filter); return })
		g.Go(func() (err error) { videos, err = s.fetch(gctx, taxonomy.KindVideo, filter); return })
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &dto.LevelPage{
			Level:   levelCard(year),
			Counts:  dto.LevelCounts{Lessons: len(lessons), Exams: len(exams), Videos: len(videos)},
			Lessons: lessons,
			Exams:   exams,
			Videos:  videos,
		}, nil
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level page")
	}
	out := *page
	out.Fallback = year.ID != yearID
	return &out, hit, nil
}

// Grouped builds the year/branch/trimester tree of one content kind.
func (s *CatalogService) Grouped(ctx context.Context, kind taxonomy.Kind, query dto.GroupedQuery) (taxonomy.Tree, bool, error) {
	if kind == taxonomy.KindBac {
		return taxonomy.Tree{}, false, appErrors.Clone(appErrors.ErrValidation, "bac papers are grouped by the bac endpoint")
	}
	items, hit, err := s.items(ctx, kind)
	if err != nil {
		return taxonomy.Tree{}, false, err
	}
	return s.tax.Build(kind, items, taxonomy.BuildOptions{
		SplitBranches:      query.Branches,
		TrimesterBreakdown: query.Breakdown,
	}), hit, nil
}

// Bac returns the bac board split into branch tabs.
func (s *CatalogService) Bac(ctx context.Context) (taxonomy.BacBoard, bool, error) {
	items, hit, err := s.bacItems(ctx)
	if err != nil {
		return taxonomy.BacBoard{}, false, err
	}
	return s.tax.BuildBac(items), hit, nil
}

// Recent merges the newest lessons, exams and videos.
func (s *CatalogService) Recent(ctx context.Context) ([]taxonomy.Item, bool, error) {
	items, hit, err := remember(ctx, s.cache, "catalog:recent", s.config.ListTTL, func(ctx context.Context) ([]taxonomy.Item, error) {
		groups := make([][]taxonomy.Item, len(taxonomy.ContentKinds))
		g, gctx := errgroup.WithContext(ctx)
		for i, kind := range taxonomy.ContentKinds {
			i, kind := i, kind
			g.Go(func() (err error) {
				groups[i], err = s.fetch(gctx, kind, models.ContentFilter{Limit: recentPerKind})
				return
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return mergeRecent(groups, recentLimit), nil
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent content")
	}
	return items, hit, nil
}

// Detail returns a single item with its rendered description.
func (s *CatalogService) Detail(ctx context.Context, kind taxonomy.Kind, id string) (*dto.ContentDetail, bool, error) {
	key := fmt.Sprintf("catalog:item:%s:%s", kind, id)
	detail, hit, err := remember(ctx, s.cache, key, s.config.ItemTTL, func(ctx context.Context) (*dto.ContentDetail, error) {
		if kind == taxonomy.KindBac {
			return s.bacDetail(ctx, id)
		}
		return s.contentDetail(ctx, kind, id)
	})
	if err != nil {
		return nil, false, s.lookupError(err, kind)
	}
	return detail, hit, nil
}

// Related returns up to three other items of the same kind and level id.
// Bac papers relate by branch.
func (s *CatalogService) Related(ctx context.Context, kind taxonomy.Kind, id string) ([]taxonomy.Item, bool, error) {
	key := fmt.Sprintf("catalog:related:%s:%s", kind, id)
	items, hit, err := remember(ctx, s.cache, key, s.config.ListTTL, func(ctx context.Context) ([]taxonomy.Item, error) {
		if kind == taxonomy.KindBac {
			return s.relatedBac(ctx, id)
		}
		current, err := s.findContent(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		return s.fetch(ctx, kind, models.ContentFilter{
			LevelIDs:  []string{current.LevelID},
			ExcludeID: id,
			Limit:     relatedLimit,
		})
	})
	if err != nil {
		return nil, false, s.lookupError(err, kind)
	}
	return items, hit, nil
}

// Search matches query against the unified list of every kind.
func (s *CatalogService) Search(ctx context.Context, query string, filter taxonomy.Filter) ([]taxonomy.Entry, bool, error) {
	lists := make([][]taxonomy.Item, len(taxonomy.ContentKinds))
	hits := make([]bool, len(taxonomy.ContentKinds)+1)
	var bac []taxonomy.BacItem

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range taxonomy.ContentKinds {
		i, kind := i, kind
		g.Go(func() (err error) {
			lists[i], hits[i], err = s.items(gctx, kind)
			return
		})
	}
	g.Go(func() (err error) {
		bac, hits[len(hits)-1], err = s.bacItems(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	allHit := true
	for _, h := range hits {
		allHit = allHit && h
	}
	entries := taxonomy.Entries(lists[0], lists[1], lists[2], bac)
	return taxonomy.Search(entries, query, filter), allHit, nil
}

// Invalidate drops every cached catalog read.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePattern); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogService) items(ctx context.Context, kind taxonomy.Kind) ([]taxonomy.Item, bool, error) {
	items, hit, err := remember(ctx, s.cache, "catalog:list:"+string(kind), s.config.ListTTL, func(ctx context.Context) ([]taxonomy.Item, error) {
		return s.fetch(ctx, kind, models.ContentFilter{})
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+string(kind)+" list")
	}
	return items, hit, nil
}

func (s *CatalogService) bacItems(ctx context.Context) ([]taxonomy.BacItem, bool, error) {
	items, hit, err := remember(ctx, s.cache, "catalog:list:bac", s.config.ListTTL, func(ctx context.Context) ([]taxonomy.BacItem, error) {
		start := time.Now()
		rows, err := s.bac.List(ctx)
		s.metrics.ObserveDBQuery("bac_exams.list", time.Since(start))
		if err != nil {
			return nil, err
		}
		out := make([]taxonomy.BacItem, 0, len(rows))
		for _, row := range rows {
			out = append(out, s.tax.NormalizeBac(row.Record()))
		}
		return out, nil
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bac papers")
	}
	return items, hit, nil
}

func (s *CatalogService) fetch(ctx context.Context, kind taxonomy.Kind, filter models.ContentFilter) ([]taxonomy.Item, error) {
	start := time.Now()
	rows, err := s.content.List(ctx, kind, filter)
	s.metrics.ObserveDBQuery(string(kind)+".list", time.Since(start))
	if err != nil {
		return nil, err
	}
	return s.tax.NormalizeAll(kind, models.ContentRecords(rows)), nil
}

func (s *CatalogService) findContent(ctx context.Context, kind taxonomy.Kind, id string) (*models.Content, error) {
	start := time.Now()
	row, err := s.content.FindByID(ctx, kind, id)
	s.metrics.ObserveDBQuery(string(kind)+".find", time.Since(start))
	return row, err
}

func (s *CatalogService) contentDetail(ctx context.Context, kind taxonomy.Kind, id string) (*dto.ContentDetail, error) {
	row, err := s.findContent(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	item := s.tax.Normalize(kind, row.Record())
	detail := &dto.ContentDetail{
		ID:             item.ID,
		Kind:           kind,
		Title:          item.Title,
		Description:    item.Description,
		LevelID:        item.LevelID,
		Level:          item.Level,
		Placement:      s.placement(item.LevelID),
		Trimester:      item.Trimester,
		TrimesterLabel: s.tax.TrimesterLabel(item.Trimester),
		ExamType:       item.ExamType,
		PDFURL:         deref(row.PDFURL),
		SolutionPDFURL: deref(row.SolutionPDFURL),
		YouTubeURL:     deref(row.YouTubeURL),
		CreatedAt:      item.CreatedAt,
	}
	if et, ok := s.tax.ExamType(item.ExamType); ok {
		detail.ExamTypeLabel = et.Singular
	}
	detail.DescriptionHTML = s.render(detail.Description)
	return detail, nil
}

func (s *CatalogService) bacDetail(ctx context.Context, id string) (*dto.ContentDetail, error) {
	start := time.Now()
	row, err := s.bac.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("bac_exams.find", time.Since(start))
	if err != nil {
		return nil, err
	}
	item := s.tax.NormalizeBac(row.Record())
	detail := &dto.ContentDetail{
		ID:             item.ID,
		Kind:           taxonomy.KindBac,
		Title:          item.Title,
		Description:    item.Description,
		LevelID:        item.LevelID,
		Level:          item.Level,
		Placement:      s.placement(item.LevelID),
		Year:           item.Year,
		Branch:         item.Branch,
		PDFURL:         item.PDFURL,
		SolutionPDFURL: item.SolutionPDFURL,
		CreatedAt:      item.CreatedAt,
	}
	detail.DescriptionHTML = s.render(detail.Description)
	return detail, nil
}

func (s *CatalogService) relatedBac(ctx context.Context, id string) ([]taxonomy.Item, error) {
	all, _, err := s.bacItems(ctx)
	if err != nil {
		return nil, err
	}
	var current *taxonomy.BacItem
	for i := range all {
		if all[i].ID == id {
			current = &all[i]
			break
		}
	}
	if current == nil {
		return nil, sql.ErrNoRows
	}
	related := []taxonomy.Item{}
	for _, b := range all {
		if b.ID == id || b.Branch != current.Branch {
			continue
		}
		related = append(related, taxonomy.Item{
			ID:          b.ID,
			Kind:        taxonomy.KindBac,
			Title:       b.Title,
			Description: b.Description,
			LevelID:     b.LevelID,
			Level:       b.Level,
			CreatedAt:   b.CreatedAt,
		})
		if len(related) == relatedLimit {
			break
		}
	}
	return related, nil
}

func (s *CatalogService) placement(levelID string) *dto.Placement {
	at, ok := s.tax.Resolve(levelID)
	if !ok {
		return nil
	}
	return &dto.Placement{Year: at.Year, Branch: at.Branch}
}

func (s *CatalogService) render(src string) string {
	if s.markdown == nil || src == "" {
		return ""
	}
	html, err := s.markdown.Render(src)
	if err != nil {
		s.logger.Warn("description render failed", zap.Error(err))
		return ""
	}
	return html
}

func (s *CatalogService) lookupError(err error, kind taxonomy.Kind) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" غير موجود")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
}

func levelCard(y taxonomy.Year) dto.LevelCard {
	card := dto.LevelCard{ID: y.ID, Label: y.Label, ShortLabel: y.ShortLabel, Description: y.Description}
	for _, b := range y.Branches {
		card.Branches = append(card.Branches, dto.BranchCard{ID: b.ID, Label: b.Label})
	}
	return card
}

// mergeRecent interleaves per-kind lists newest first and keeps limit items.
// Ties keep kind order.
func mergeRecent(groups [][]taxonomy.Item, limit int) []taxonomy.Item {
	merged := []taxonomy.Item{}
	for _, g := range groups {
		merged = append(merged, g...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
