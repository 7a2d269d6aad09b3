package data

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"edupro/internal/model"
)

const submissionColumns = `id, assessment_id, student_id, answers, score, submitted_at, created_at`

type SubmissionRepository struct {
	db Querier
}

func NewSubmissionRepository(db Querier) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) CreateSubmission(ctx context.Context, input *model.RepositoryCreateSubmissionInput) (*model.Submission, error) {
	query := `
INSERT INTO submissions (id, assessment_id, student_id, answers, score)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + submissionColumns

	var s model.Submission
	err := pgxscan.Get(ctx, r.db, &s, query,
		input.Id,
		input.AssessmentId,
		input.StudentId,
		input.Answers,
		input.Score,
	)
	if err != nil {
		return nil, handleError("submission", err)
	}
	return &s, nil
}

// UpdateSubmission overwrites answers and score in place and refreshes
// submitted_at; the id is kept.
func (r *SubmissionRepository) UpdateSubmission(ctx context.Context, id uuid.UUID, input *model.RepositoryUpdateSubmissionInput) (*model.Submission, error) {
	query := `
UPDATE submissions
SET answers = $1, score = $2, submitted_at = now()
WHERE id = $3
RETURNING ` + submissionColumns

	var s model.Submission
	err := pgxscan.Get(ctx, r.db, &s, query, input.Answers, input.Score, id)
	if err != nil {
		return nil, handleError("submission", err)
	}
	return &s, nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, assessmentID, studentID uuid.UUID) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assessment_id = $1 AND student_id = $2`

	var s model.Submission
	err := pgxscan.Get(ctx, r.db, &s, query, assessmentID, studentID)
	if err != nil {
		return nil, handleError("submission", err)
	}
	return &s, nil
}

func (r *SubmissionRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assessment_id = $1 ORDER BY submitted_at DESC`

	var list []*model.Submission
	err := pgxscan.Select(ctx, r.db, &list, query, assessmentID)
	if err != nil {
		return nil, handleError("submission", err)
	}
	return list, nil
}
