package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
)

type contentSchema struct {
	table   string
	columns []string
}

var contentSchemas = map[taxonomy.Kind]contentSchema{
	taxonomy.KindLesson: {
		table:   "lessons",
		columns: []string{"id", "title", "description", "level_id", "trimester", "pdf_url", "created_at", "updated_at"},
	},
	taxonomy.KindExam: {
		table:   "exams",
		columns: []string{"id", "title", "description", "level_id", "trimester", "exam_type", "pdf_url", "solution_pdf_url", "created_at", "updated_at"},
	},
	taxonomy.KindVideo: {
		table:   "videos",
		columns: []string{"id", "title", "description", "level_id", "trimester", "youtube_url", "created_at", "updated_at"},
	},
}

// ContentRepository persists lessons, exams and videos. The three kinds share
// one row shape and differ only in their kind-specific columns.
type ContentRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewContentRepository creates a new repository instance.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func schemaFor(kind taxonomy.Kind) (contentSchema, error) {
	schema, ok := contentSchemas[kind]
	if !ok {
		return contentSchema{}, fmt.Errorf("unsupported content kind %q", kind)
	}
	return schema, nil
}

// List returns rows of one kind, newest first.
func (r *ContentRepository) List(ctx context.Context, kind taxonomy.Kind, filter models.ContentFilter) ([]models.Content, error) {
	schema, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}

	builder := r.sb.Select(schema.columns...).From(schema.table)
	if len(filter.LevelIDs) > 0 {
		builder = builder.Where(squirrel.Eq{"level_id": filter.LevelIDs})
	}
	if filter.ExcludeID != "" {
		builder = builder.Where(squirrel.NotEq{"id": filter.ExcludeID})
	}
	builder = builder.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list %s query: %w", schema.table, err)
	}

	var rows []models.Content
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", schema.table, err)
	}
	for i := range rows {
		rows[i].Kind = kind
	}
	return rows, nil
}

// FindByID returns one row or sql.ErrNoRows.
func (r *ContentRepository) FindByID(ctx context.Context, kind taxonomy.Kind, id string) (*models.Content, error) {
	schema, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}

	query, args, err := r.sb.Select(schema.columns...).
		From(schema.table).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find %s query: %w", schema.table, err)
	}

	var row models.Content
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s: %w", schema.table, err)
	}
	row.Kind = kind
	return &row, nil
}

// Create inserts a row, assigning its id and timestamps.
func (r *ContentRepository) Create(ctx context.Context, content *models.Content) error {
	schema, err := schemaFor(content.Kind)
	if err != nil {
		return err
	}
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if content.CreatedAt.IsZero() {
		content.CreatedAt = now
	}
	content.UpdatedAt = now

	values := writableValues(content)
	values["id"] = content.ID
	values["created_at"] = content.CreatedAt

	query, args, err := r.sb.Insert(schema.table).SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", schema.table, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create %s: %w", schema.table, err)
	}
	return nil
}

// Update rewrites the mutable columns of a row. A missing row yields
// sql.ErrNoRows.
func (r *ContentRepository) Update(ctx context.Context, content *models.Content) error {
	schema, err := schemaFor(content.Kind)
	if err != nil {
		return err
	}
	content.UpdatedAt = time.Now().UTC()

	query, args, err := r.sb.Update(schema.table).
		SetMap(writableValues(content)).
		Where(squirrel.Eq{"id": content.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update %s query: %w", schema.table, err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", schema.table, err)
	}
	return requireAffected(res)
}

// Delete removes a row. A missing row yields sql.ErrNoRows.
func (r *ContentRepository) Delete(ctx context.Context, kind taxonomy.Kind, id string) error {
	schema, err := schemaFor(kind)
	if err != nil {
		return err
	}

	query, args, err := r.sb.Delete(schema.table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s query: %w", schema.table, err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", schema.table, err)
	}
	return requireAffected(res)
}

// Count returns the number of rows of one kind.
func (r *ContentRepository) Count(ctx context.Context, kind taxonomy.Kind) (int, error) {
	schema, err := schemaFor(kind)
	if err != nil {
		return 0, err
	}

	query, args, err := r.sb.Select("COUNT(*)").From(schema.table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s query: %w", schema.table, err)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", schema.table, err)
	}
	return count, nil
}

func writableValues(c *models.Content) map[string]interface{} {
	values := map[string]interface{}{
		"title":       c.Title,
		"description": c.Description,
		"level_id":    c.LevelID,
		"trimester":   c.Trimester,
		"updated_at":  c.UpdatedAt,
	}
	switch c.Kind {
	case taxonomy.KindLesson:
		values["pdf_url"] = c.PDFURL
	case taxonomy.KindExam:
		values["exam_type"] = c.ExamType
		values["pdf_url"] = c.PDFURL
		values["solution_pdf_url"] = c.SolutionPDFURL
	case taxonomy.KindVideo:
		values["youtube_url"] = c.YouTubeURL
	}
	return values
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
