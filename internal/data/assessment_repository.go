package data

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"edupro/internal/model"
)

const assessmentColumns = `id, course_id, created_by, title, description, questions, max_score, created_at, edited_at`

type AssessmentRepository struct {
	db Querier
}

func NewAssessmentRepository(db Querier) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) CreateAssessment(ctx context.Context, input *model.RepositoryCreateAssessmentInput) (*model.Assessment, error) {
	query := `
INSERT INTO assessments (id, course_id, created_by, title, description, questions, max_score)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + assessmentColumns

	var a model.Assessment
	err := pgxscan.Get(ctx, r.db, &a, query,
		input.Id,
		input.CourseId,
		input.CreatedBy,
		input.Title,
		input.Description,
		input.Questions,
		input.MaxScore,
	)
	if err != nil {
		return nil, handleError("assessment", err)
	}
	return &a, nil
}

func (r *AssessmentRepository) GetAssessment(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	var a model.Assessment
	err := pgxscan.Get(ctx, r.db, &a, query, id)
	if err != nil {
		return nil, handleError("assessment", err)
	}
	return &a, nil
}

func (r *AssessmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*model.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE course_id = $1 ORDER BY created_at DESC`

	var list []*model.Assessment
	err := pgxscan.Select(ctx, r.db, &list, query, courseID)
	if err != nil {
		return nil, handleError("assessment", err)
	}
	return list, nil
}
