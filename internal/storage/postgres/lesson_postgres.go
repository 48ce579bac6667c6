package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
)

const lessonColumns = `
    id, collection, title, video_url, audio_url, pdf_url,
    image_url, answers_url, comment, created_at, updated_at
`

type LessonPostgres struct {
	db *pgxpool.Pool
}

func NewLessonPostgres(db *pgxpool.Pool) *LessonPostgres {
	return &LessonPostgres{db: db}
}

// EnsureSchema creates the lessons table and its indexes if missing.
func (r *LessonPostgres) EnsureSchema(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS lessons (
        id          uuid PRIMARY KEY,
        collection  text NOT NULL,
        root        text NOT NULL,
        node        text NOT NULL,
        title       text NOT NULL,
        video_url   text NOT NULL DEFAULT '',
        audio_url   text NOT NULL DEFAULT '',
        pdf_url     text NOT NULL DEFAULT '',
        image_url   text NOT NULL DEFAULT '',
        answers_url text NOT NULL DEFAULT '',
        comment     jsonb,
        created_at  timestamptz NOT NULL DEFAULT clock_timestamp(),
        updated_at  timestamptz NOT NULL DEFAULT clock_timestamp()
    );
    CREATE INDEX IF NOT EXISTS lessons_collection_created_idx ON lessons (collection, created_at);
    CREATE INDEX IF NOT EXISTS lessons_root_node_idx ON lessons (root, node);
    `
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create lessons schema: %w", err)
	}
	return nil
}

// AddLesson inserts a lesson; the database assigns created_at.
func (r *LessonPostgres) AddLesson(ctx context.Context, collection string, fields models.LessonFields) (string, error) {
	lesson := models.Lesson{}.Apply(fields)
	comment, err := encodeComment(lesson.Comment)
	if err != nil {
		return "", err
	}
	root, node, ok := tree.SplitCollection(collection)
	if !ok {
		root = collection
	}

	id := uuid.New()
	query := `
    INSERT INTO lessons (
        id, collection, root, node, title,
        video_url, audio_url, pdf_url, image_url, answers_url, comment
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err = r.db.Exec(ctx, query,
		id, collection, root, node, lesson.Title,
		lesson.VideoURL, lesson.AudioURL, lesson.PDFURL, lesson.ImageURL, lesson.AnswersURL, comment,
	)
	if err != nil {
		return "", fmt.Errorf("insert lesson: %w", err)
	}
	return id.String(), nil
}

// UpdateLesson overwrites the present fields and keeps the rest.
func (r *LessonPostgres) UpdateLesson(ctx context.Context, collection, id string, fields models.LessonFields) error {
	lessonID, err := uuid.Parse(id)
	if err != nil {
		return app_errors.ErrLessonNotFound
	}
	var comment []byte
	if fields.Comment != nil {
		if comment, err = encodeComment(*fields.Comment); err != nil {
			return err
		}
	}

	query := `
    UPDATE lessons SET
        title       = COALESCE($3, title),
        video_url   = COALESCE($4, video_url),
        audio_url   = COALESCE($5, audio_url),
        pdf_url     = COALESCE($6, pdf_url),
        image_url   = COALESCE($7, image_url),
        answers_url = COALESCE($8, answers_url),
        comment     = CASE WHEN $9 THEN $10::jsonb ELSE comment END,
        updated_at  = clock_timestamp()
     WHERE collection = $1 AND id = $2
    `
	tag, err := r.db.Exec(ctx, query,
		collection, lessonID,
		fields.Title, fields.VideoURL, fields.AudioURL, fields.PDFURL, fields.ImageURL, fields.AnswersURL,
		fields.Comment != nil, comment,
	)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrLessonNotFound
	}
	return nil
}

func (r *LessonPostgres) DeleteLesson(ctx context.Context, collection, id string) error {
	lessonID, err := uuid.Parse(id)
	if err != nil {
		return app_errors.ErrLessonNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM lessons WHERE collection = $1 AND id = $2`, collection, lessonID)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrLessonNotFound
	}
	return nil
}

func (r *LessonPostgres) GetLesson(ctx context.Context, collection, id string) (models.Lesson, error) {
	lessonID, err := uuid.Parse(id)
	if err != nil {
		return models.Lesson{}, app_errors.ErrLessonNotFound
	}
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE collection = $1 AND id = $2`
	lesson, err := scanLesson(r.db.QueryRow(ctx, query, collection, lessonID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Lesson{}, app_errors.ErrLessonNotFound
	}
	if err != nil {
		return models.Lesson{}, fmt.Errorf("get lesson: %w", err)
	}
	return lesson, nil
}

// ListLessons returns the lessons of collection by creation time.
func (r *LessonPostgres) ListLessons(ctx context.Context, collection string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE collection = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// ListLevels returns the nodes under root that hold lessons, ordered by
// their first lesson.
func (r *LessonPostgres) ListLevels(ctx context.Context, root string) ([]string, error) {
	query := `
    SELECT node
      FROM lessons
     WHERE root = $1 AND node <> ''
     GROUP BY node
     ORDER BY MIN(created_at), node
    `
	rows, err := r.db.Query(ctx, query, root)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	levels, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return levels, nil
}

// Search matches query against titles and comments when no search index is
// configured. An empty collection searches every collection.
func (r *LessonPostgres) Search(ctx context.Context, query, collection string, size int) ([]models.Lesson, error) {
	if size <= 0 {
		size = 10
	}
	sql := `SELECT ` + lessonColumns + `
      FROM lessons
     WHERE (title ILIKE '%' || $1 || '%' OR comment::text ILIKE '%' || $1 || '%')
       AND ($2 = '' OR collection = $2)
     ORDER BY created_at, id
     LIMIT $3`
	rows, err := r.db.Query(ctx, sql, query, collection, size)
	if err != nil {
		return nil, app_errors.Transport("search lessons", err)
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, app_errors.Transport("scan lesson", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, app_errors.Transport("search lessons", err)
	}
	return lessons, nil
}

func scanLesson(row pgx.Row) (models.Lesson, error) {
	var (
		lesson  models.Lesson
		id      uuid.UUID
		comment []byte
	)
	lesson.CreatedAt = new(time.Time)
	lesson.UpdatedAt = new(time.Time)
	err := row.Scan(
		&id, &lesson.Collection, &lesson.Title, &lesson.VideoURL, &lesson.AudioURL, &lesson.PDFURL,
		&lesson.ImageURL, &lesson.AnswersURL, &comment, lesson.CreatedAt, lesson.UpdatedAt,
	)
	if err != nil {
		return models.Lesson{}, err
	}
	lesson.ID = id.String()
	if len(comment) > 0 {
		if err := json.Unmarshal(comment, &lesson.Comment); err != nil {
			return models.Lesson{}, fmt.Errorf("decode comment: %w", err)
		}
	}
	return lesson, nil
}

func encodeComment(c models.Comment) ([]byte, error) {
	if len(c) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode comment: %w", err)
	}
	return b, nil
}
