package quiz

import (
	"fmt"

	"edupro/internal/errdefs"
)

type State string

const (
	StateLoading    State = "loading"
	StateNoPrior    State = "no-prior-submission"
	StatePriorFound State = "prior-submission-found"
	StateInProgress State = "in-progress"
)

// Session walks a student through one attempt of an assessment. It is not
// safe for concurrent use; callers persist it between requests with
// Snapshot and Restore.
type Session struct {
	questions []Question
	state     State
	current   int
	answers   Answers
	prior     Answers
}

// Snapshot is the persisted form of a Session. Questions are not part of it:
// they are reloaded from the assessment.
type Snapshot struct {
	State   State   `json:"state"`
	Current int     `json:"current"`
	Answers Answers `json:"answers"`
	Prior   Answers `json:"prior,omitempty"`
}

func NewSession(questions []Question) *Session {
	return &Session{
		questions: questions,
		state:     StateLoading,
		answers:   Answers{},
	}
}

// Load records the result of looking up the student's prior submission.
// A nil prior means the student has never submitted.
func (s *Session) Load(prior Answers) error {
	if s.state != StateLoading {
		return s.transitionError("load")
	}
	if prior == nil {
		s.state = StateNoPrior
		return nil
	}
	s.prior = prior.Clone()
	s.state = StatePriorFound
	return nil
}

// Start begins a first attempt.
func (s *Session) Start() error {
	if s.state != StateNoPrior {
		return s.transitionError("start")
	}
	s.begin(Answers{})
	return nil
}

// Resume begins a retake preloaded with the prior submission's answers.
func (s *Session) Resume() error {
	if s.state != StatePriorFound {
		return s.transitionError("resume")
	}
	s.begin(s.prior.Clone())
	return nil
}

// StartFresh begins a retake with no answers, at the first question.
func (s *Session) StartFresh() error {
	if s.state != StatePriorFound && s.state != StateNoPrior {
		return s.transitionError("start fresh")
	}
	s.begin(Answers{})
	return nil
}

func (s *Session) begin(answers Answers) {
	s.answers = answers
	s.current = 0
	s.state = StateInProgress
}

// Answer records option as the answer to question index.
func (s *Session) Answer(index, option int) error {
	if s.state != StateInProgress {
		return s.transitionError("answer")
	}
	if index < 0 || index >= len(s.questions) {
		return errdefs.Validation(fmt.Sprintf("question %d does not exist", index))
	}
	if option < 0 || option >= len(s.questions[index].Options) {
		return errdefs.Validation(fmt.Sprintf("option %d does not exist for question %d", option, index))
	}
	s.answers[index] = option
	return nil
}

// Goto moves to question index without touching the answers.
func (s *Session) Goto(index int) error {
	if s.state != StateInProgress {
		return s.transitionError("navigate")
	}
	if index < 0 || index >= len(s.questions) {
		return errdefs.Validation(fmt.Sprintf("question %d does not exist", index))
	}
	s.current = index
	return nil
}

// Next moves forward one question and reports whether it moved.
func (s *Session) Next() bool {
	if s.state != StateInProgress || s.current+1 >= len(s.questions) {
		return false
	}
	s.current++
	return true
}

// Prev moves back one question and reports whether it moved.
func (s *Session) Prev() bool {
	if s.state != StateInProgress || s.current == 0 {
		return false
	}
	s.current--
	return true
}

func (s *Session) State() State { return s.state }

func (s *Session) Current() int { return s.current }

func (s *Session) Total() int { return len(s.questions) }

// Question returns the question at the current position, or nil when the
// session has not started or there are no questions.
func (s *Session) Question() *Question {
	if s.state != StateInProgress || len(s.questions) == 0 {
		return nil
	}
	q := s.questions[s.current]
	return &q
}

func (s *Session) Answers() Answers { return s.answers.Clone() }

func (s *Session) CanSubmit() bool {
	return s.state == StateInProgress && len(s.questions) > 0 &&
		CheckComplete(len(s.questions), s.answers) == nil
}

// Score scores the collected answers; it fails with ErrUnanswered when
// any question is still open.
func (s *Session) Score(maxScore int) (int, error) {
	if s.state != StateInProgress {
		return 0, s.transitionError("submit")
	}
	if err := CheckComplete(len(s.questions), s.answers); err != nil {
		return 0, err
	}
	return Score(s.questions, s.answers, maxScore), nil
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:   s.state,
		Current: s.current,
		Answers: s.answers.Clone(),
	}
	if s.prior != nil {
		snap.Prior = s.prior.Clone()
	}
	return snap
}

// Restore rebuilds a session from snap against the current question list.
// Answers that no longer fit the questions are dropped.
func Restore(questions []Question, snap Snapshot) (*Session, error) {
	switch snap.State {
	case StateLoading, StateNoPrior, StatePriorFound, StateInProgress:
	default:
		return nil, fmt.Errorf("%w: unknown state %q", errdefs.ErrInvalidTransition, snap.State)
	}

	s := &Session{
		questions: questions,
		state:     snap.State,
		answers:   Answers{},
	}
	for i, opt := range snap.Answers {
		if i >= 0 && i < len(questions) && opt >= 0 && opt < len(questions[i].Options) {
			s.answers[i] = opt
		}
	}
	if snap.Prior != nil || snap.State == StatePriorFound {
		s.prior = snap.Prior.Clone()
	}
	if snap.Current >= 0 && snap.Current < len(questions) {
		s.current = snap.Current
	}
	return s, nil
}

func (s *Session) transitionError(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", errdefs.ErrInvalidTransition, action, s.state)
}
