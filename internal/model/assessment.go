package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"edupro/internal/quiz"
)

type Assessment struct {
	Id           uuid.UUID       `db:"id"`
	CourseId     uuid.UUID       `db:"course_id"`
	CreatedBy    uuid.UUID       `db:"created_by"`
	Title        string          `db:"title"`
	Description  *string         `db:"description"`
	RawQuestions json.RawMessage `db:"questions"`
	MaxScore     int             `db:"max_score"`
	CreatedAt    time.Time       `db:"created_at"`
	EditedAt     time.Time       `db:"edited_at"`
}

// Questions returns only the stored questions that pass shape validation.
func (a *Assessment) Questions() []quiz.Question {
	return quiz.ParseQuestions(a.RawQuestions)
}

type Submission struct {
	Id           uuid.UUID    `db:"id" json:"id"`
	AssessmentId uuid.UUID    `db:"assessment_id" json:"assessment_id"`
	StudentId    uuid.UUID    `db:"student_id" json:"student_id"`
	Answers      quiz.Answers `db:"answers" json:"answers"`
	Score        int          `db:"score" json:"score"`
	SubmittedAt  time.Time    `db:"submitted_at" json:"submitted_at"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

type OverviewState string

const (
	OverviewNoPriorSubmission OverviewState = "no-prior-submission"
	OverviewPriorSubmission   OverviewState = "prior-submission-found"
)

// AssessmentView is what a caller is allowed to see of an assessment.
type AssessmentView struct {
	Id          uuid.UUID       `json:"id"`
	CourseId    uuid.UUID       `json:"course_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	MaxScore    int             `json:"max_score"`
	Available   bool            `json:"available"`
	Questions   []quiz.Question `json:"questions"`
	AnswerKey   []int           `json:"answer_key,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type AssessmentOverview struct {
	Assessment      *AssessmentView `json:"assessment"`
	State           OverviewState   `json:"state"`
	PriorSubmission *Submission     `json:"prior_submission,omitempty"`
}

type SubmissionResult struct {
	Submission *Submission `json:"submission"`
	MaxScore   int         `json:"max_score"`
	Percentage float64     `json:"percentage"`
	Passed     bool        `json:"passed"`
	Retake     bool        `json:"retake"`
}

type AttemptMode string

const (
	AttemptModeStart  AttemptMode = "start"
	AttemptModeResume AttemptMode = "resume"
	AttemptModeFresh  AttemptMode = "fresh"
)

func (m AttemptMode) IsValid() bool {
	return m == AttemptModeStart || m == AttemptModeResume || m == AttemptModeFresh
}

// Attempt is an in-progress attempt as stored between requests.
type Attempt struct {
	AssessmentId uuid.UUID     `json:"assessment_id"`
	StudentId    uuid.UUID     `json:"student_id"`
	Session      quiz.Snapshot `json:"session"`
	LastError    string        `json:"last_error,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type AttemptView struct {
	AssessmentId  uuid.UUID      `json:"assessment_id"`
	State         quiz.State     `json:"state"`
	Current       int            `json:"current"`
	Total         int            `json:"total"`
	Question      *quiz.Question `json:"question,omitempty"`
	Answers       quiz.Answers   `json:"answers"`
	CanSubmit     bool           `json:"can_submit"`
	LastSubmitErr string         `json:"last_submit_error,omitempty"`
}
