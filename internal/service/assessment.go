package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/internal/quiz"
	"edupro/pkg/logging"
)

const submitFailedMessage = "an error occurred, please try again"

type AssessmentConfig struct {
	PassPercentage  int
	DefaultMaxScore int
}

type AssessmentService struct {
	assessments AssessmentRepository
	submissions SubmissionRepository
	attempts    AttemptStore
	events      EventPublisher
	cfg         AssessmentConfig
	logger      *logging.Logger
}

func NewAssessmentService(
	assessments AssessmentRepository,
	submissions SubmissionRepository,
	attempts AttemptStore,
	events EventPublisher,
	cfg AssessmentConfig,
	logger *logging.Logger,
) *AssessmentService {
	return &AssessmentService{assessments, submissions, attempts, events, cfg, logger}
}

func (s *AssessmentService) CreateAssessment(ctx context.Context, input *model.CreateAssessmentInput) (*model.AssessmentView, error) {
	teacherID, err := ensureCurrentUserRole(ctx, model.RoleTeacher)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errdefs.Validation("title is required")
	}
	if input.CourseId == uuid.Nil {
		return nil, errdefs.Validation("course id is required")
	}

	maxScore := s.cfg.DefaultMaxScore
	if input.MaxScore != nil {
		maxScore = *input.MaxScore
	}
	if maxScore <= 0 {
		return nil, errdefs.Validation("max score must be positive")
	}

	questions, err := quiz.ValidateQuestions(input.Questions)
	if err != nil {
		return nil, err
	}
	raw, err := quiz.EncodeQuestions(questions)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	a, err := s.assessments.CreateAssessment(ctx, &model.RepositoryCreateAssessmentInput{
		Id:          id,
		CourseId:    input.CourseId,
		CreatedBy:   teacherID,
		Title:       title,
		Description: input.Description,
		Questions:   raw,
		MaxScore:    maxScore,
	})
	if err != nil {
		return nil, err
	}
	return toAssessmentView(a, teacherID), nil
}

func (s *AssessmentService) GetAssessment(ctx context.Context, id uuid.UUID) (*model.AssessmentView, error) {
	userID, _, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAssessmentView(a, userID), nil
}

func (s *AssessmentService) ListCourseAssessments(ctx context.Context, courseID uuid.UUID) ([]*model.AssessmentView, error) {
	userID, _, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.assessments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	views := make([]*model.AssessmentView, 0, len(list))
	for _, a := range list {
		views = append(views, toAssessmentView(a, userID))
	}
	return views, nil
}

// GetOverview returns the assessment together with the caller's prior
// submission, if any.
func (s *AssessmentService) GetOverview(ctx context.Context, id uuid.UUID) (*model.AssessmentOverview, error) {
	studentID, err := ensureCurrentUserRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	a, err := s.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}

	overview := &model.AssessmentOverview{
		Assessment: toAssessmentView(a, studentID),
		State:      model.OverviewNoPriorSubmission,
	}

	prior, err := s.priorSubmission(ctx, id, studentID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		overview.State = model.OverviewPriorSubmission
		overview.PriorSubmission = prior
	}
	return overview, nil
}

// BeginAttempt opens a new in-progress attempt, replacing any stored one.
func (s *AssessmentService) BeginAttempt(ctx context.Context, id uuid.UUID, mode model.AttemptMode) (*model.AttemptView, error) {
	studentID, err := ensureCurrentUserRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	if !mode.IsValid() {
		return nil, errdefs.Validation("mode must be one of start, resume, fresh")
	}

	_, questions, err := s.availableQuestions(ctx, id)
	if err != nil {
		return nil, err
	}

	prior, err := s.priorSubmission(ctx, id, studentID)
	if err != nil {
		return nil, err
	}

	session := quiz.NewSession(questions)
	var priorAnswers quiz.Answers
	if prior != nil {
		priorAnswers = prior.Answers
		if priorAnswers == nil {
			priorAnswers = quiz.Answers{}
		}
	}
	if err := session.Load(priorAnswers); err != nil {
		return nil, err
	}

	switch mode {
	case model.AttemptModeStart:
		err = session.Start()
	case model.AttemptModeResume:
		err = session.Resume()
	case model.AttemptModeFresh:
		err = session.StartFresh()
	}
	if err != nil {
		return nil, err
	}

	attempt := &model.Attempt{AssessmentId: id, StudentId: studentID}
	if err := s.saveAttempt(ctx, attempt, session); err != nil {
		return nil, err
	}
	return attemptView(attempt, session), nil
}

func (s *AssessmentService) GetAttempt(ctx context.Context, id uuid.UUID) (*model.AttemptView, error) {
	attempt, session, _, err := s.loadAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	return attemptView(attempt, session), nil
}

func (s *AssessmentService) RecordAnswer(ctx context.Context, id uuid.UUID, index, option int) (*model.AttemptView, error) {
	attempt, session, _, err := s.loadAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.Answer(index, option); err != nil {
		return nil, err
	}
	if err := s.saveAttempt(ctx, attempt, session); err != nil {
		return nil, err
	}
	return attemptView(attempt, session), nil
}

func (s *AssessmentService) MoveTo(ctx context.Context, id uuid.UUID, index int) (*model.AttemptView, error) {
	attempt, session, _, err := s.loadAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.Goto(index); err != nil {
		return nil, err
	}
	if err := s.saveAttempt(ctx, attempt, session); err != nil {
		return nil, err
	}
	return attemptView(attempt, session), nil
}

// SubmitAttempt scores the stored attempt and records it. If the write
// fails the attempt is kept, with the failure noted, so the student can
// retry without answering again.
func (s *AssessmentService) SubmitAttempt(ctx context.Context, id uuid.UUID) (*model.SubmissionResult, error) {
	attempt, session, a, err := s.loadAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	score, err := session.Score(a.MaxScore)
	if err != nil {
		return nil, err
	}

	result, err := s.recordSubmission(ctx, a, attempt.StudentId, session.Answers(), score)
	if err != nil {
		attempt.LastError = submitFailedMessage
		if saveErr := s.saveAttempt(ctx, attempt, session); saveErr != nil {
			logging.FromContext(ctx, s.logger).Error(ctx, "failed to keep attempt after submit failure", zap.Error(saveErr))
		}
		return nil, err
	}

	if err := s.attempts.DeleteAttempt(ctx, id, attempt.StudentId); err != nil {
		logging.FromContext(ctx, s.logger).Warn(ctx, "failed to drop submitted attempt", zap.Error(err))
	}
	return result, nil
}

// SubmitAnswers scores a complete answer map and stores it as the caller's
// submission, updating the existing one in place on a retake.
func (s *AssessmentService) SubmitAnswers(ctx context.Context, id uuid.UUID, answers quiz.Answers) (*model.SubmissionResult, error) {
	studentID, err := ensureCurrentUserRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}

	a, err := s.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	questions := a.Questions()
	if len(questions) == 0 {
		return nil, errdefs.ErrAssessmentUnavailable
	}
	if err := quiz.CheckOptions(questions, answers); err != nil {
		return nil, err
	}
	if err := quiz.CheckComplete(len(questions), answers); err != nil {
		return nil, err
	}

	score := quiz.Score(questions, answers, a.MaxScore)
	return s.recordSubmission(ctx, a, studentID, answers, score)
}

func (s *AssessmentService) recordSubmission(
	ctx context.Context,
	a *model.Assessment,
	studentID uuid.UUID,
	answers quiz.Answers,
	score int,
) (*model.SubmissionResult, error) {
	encoded, err := answers.Encode()
	if err != nil {
		return nil, err
	}

	existing, err := s.priorSubmission(ctx, a.Id, studentID)
	if err != nil {
		return nil, err
	}

	var (
		submission *model.Submission
		retake     = existing != nil
	)
	if retake {
		submission, err = s.submissions.UpdateSubmission(ctx, existing.Id, &model.RepositoryUpdateSubmissionInput{
			Answers: encoded,
			Score:   score,
		})
	} else {
		submission, err = s.createSubmission(ctx, a.Id, studentID, encoded, score)
		if errors.Is(err, errdefs.ErrAlreadyExists) {
			// Another request created it first; overwrite that one.
			retake = true
			existing, err = s.submissions.GetSubmission(ctx, a.Id, studentID)
			if err == nil {
				submission, err = s.submissions.UpdateSubmission(ctx, existing.Id, &model.RepositoryUpdateSubmissionInput{
					Answers: encoded,
					Score:   score,
				})
			}
		}
	}
	if err != nil {
		return nil, err
	}

	result := &model.SubmissionResult{
		Submission: submission,
		MaxScore:   a.MaxScore,
		Percentage: quiz.Percentage(submission.Score, a.MaxScore),
		Passed:     quiz.Passed(submission.Score, a.MaxScore, s.cfg.PassPercentage),
		Retake:     retake,
	}

	s.publishSubmission(ctx, result)
	return result, nil
}

func (s *AssessmentService) createSubmission(ctx context.Context, assessmentID, studentID uuid.UUID, answers []byte, score int) (*model.Submission, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return s.submissions.CreateSubmission(ctx, &model.RepositoryCreateSubmissionInput{
		Id:           id,
		AssessmentId: assessmentID,
		StudentId:    studentID,
		Answers:      answers,
		Score:        score,
	})
}

func (s *AssessmentService) publishSubmission(ctx context.Context, result *model.SubmissionResult) {
	sub := result.Submission
	err := s.events.PublishSubmissionRecorded(ctx, &model.SubmissionRecordedEvent{
		SubmissionId: sub.Id,
		AssessmentId: sub.AssessmentId,
		StudentId:    sub.StudentId,
		Score:        sub.Score,
		MaxScore:     result.MaxScore,
		Passed:       result.Passed,
		Retake:       result.Retake,
		SubmittedAt:  sub.SubmittedAt,
	})
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn(ctx, "failed to publish submission event",
			zap.String("submission_id", sub.Id.String()), zap.Error(err))
	}
}

// GetResults returns the caller's latest submission with its grading.
func (s *AssessmentService) GetResults(ctx context.Context, id uuid.UUID) (*model.SubmissionResult, error) {
	studentID, err := ensureCurrentUserRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	a, err := s.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	sub, err := s.submissions.GetSubmission(ctx, id, studentID)
	if err != nil {
		return nil, err
	}

	return &model.SubmissionResult{
		Submission: sub,
		MaxScore:   a.MaxScore,
		Percentage: quiz.Percentage(sub.Score, a.MaxScore),
		Passed:     quiz.Passed(sub.Score, a.MaxScore, s.cfg.PassPercentage),
	}, nil
}

// ListSubmissions is available to the teacher who authored the assessment.
func (s *AssessmentService) ListSubmissions(ctx context.Context, id uuid.UUID) ([]*model.Submission, error) {
	teacherID, err := ensureCurrentUserRole(ctx, model.RoleTeacher)
	if err != nil {
		return nil, err
	}
	a, err := s.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.CreatedBy != teacherID {
		return nil, errdefs.ErrPermissionDenied
	}
	return s.submissions.ListByAssessment(ctx, id)
}

func (s *AssessmentService) availableQuestions(ctx context.Context, id uuid.UUID) (*model.Assessment, []quiz.Question, error) {
	a, err := s.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	questions := a.Questions()
	if len(questions) == 0 {
		return nil, nil, errdefs.ErrAssessmentUnavailable
	}
	return a, questions, nil
}

// priorSubmission returns nil without error when the student has not
// submitted yet.
func (s *AssessmentService) priorSubmission(ctx context.Context, assessmentID, studentID uuid.UUID) (*model.Submission, error) {
	sub, err := s.submissions.GetSubmission(ctx, assessmentID, studentID)
	if errors.Is(err, errdefs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *AssessmentService) loadAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, *quiz.Session, *model.Assessment, error) {
	studentID, err := ensureCurrentUserRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, nil, nil, err
	}
	attempt, err := s.attempts.GetAttempt(ctx, id, studentID)
	if err != nil {
		return nil, nil, nil, err
	}
	a, questions, err := s.availableQuestions(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	session, err := quiz.Restore(questions, attempt.Session)
	if err != nil {
		return nil, nil, nil, err
	}
	return attempt, session, a, nil
}

func (s *AssessmentService) saveAttempt(ctx context.Context, attempt *model.Attempt, session *quiz.Session) error {
	attempt.Session = session.Snapshot()
	attempt.UpdatedAt = time.Now()
	return s.attempts.SaveAttempt(ctx, attempt)
}

func toAssessmentView(a *model.Assessment, viewer uuid.UUID) *model.AssessmentView {
	questions := a.Questions()
	view := &model.AssessmentView{
		Id:          a.Id,
		CourseId:    a.CourseId,
		Title:       a.Title,
		Description: a.Description,
		MaxScore:    a.MaxScore,
		Available:   len(questions) > 0,
		Questions:   questions,
		CreatedAt:   a.CreatedAt,
	}
	if a.CreatedBy == viewer {
		view.AnswerKey = quiz.AnswerKey(questions)
	}
	return view
}

func attemptView(attempt *model.Attempt, session *quiz.Session) *model.AttemptView {
	return &model.AttemptView{
		AssessmentId:  attempt.AssessmentId,
		State:         session.State(),
		Current:       session.Current(),
		Total:         session.Total(),
		Question:      session.Question(),
		Answers:       session.Answers(),
		CanSubmit:     session.CanSubmit(),
		LastSubmitErr: attempt.LastError,
	}
}
