package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
)

// LessonRepository reads the lesson catalog
type LessonRepository struct {
	db base.Querier
}

func NewLessonRepository(db base.Querier) *LessonRepository {
	return &LessonRepository{db: db}
}

// GetByIDs returns found lessons keyed by id
func (r *LessonRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Lesson, error) {
	lessons := make(map[string]*model.Lesson, len(ids))
	if len(ids) == 0 {
		return lessons, nil
	}

	query := `
		SELECT lesson_id, teacher_id, title
		FROM lesson
		WHERE lesson_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get lessons by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lesson model.Lesson
		if err := rows.Scan(&lesson.ID, &lesson.TeacherID, &lesson.Title); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons[lesson.ID] = &lesson
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}
