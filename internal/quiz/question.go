// Package quiz holds the assessment-taking logic that does not depend on
// storage: question validation, scoring and the attempt state machine.
package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"edupro/internal/errdefs"
)

type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"-"`
	Points        int      `json:"points"`
}

// Answers maps a question index to the chosen option index.
type Answers map[int]int

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Encode returns the JSON form stored in submissions.answers.
func (a Answers) Encode() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[int]int(a))
}

// ParseQuestions decodes a stored question list, silently dropping every
// element that does not have the expected shape. Input that is not a JSON
// array yields no questions.
func ParseQuestions(raw []byte) []Question {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}

	questions := make([]Question, 0, len(elems))
	for _, elem := range elems {
		if q, ok := parseQuestion(elem); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func parseQuestion(raw json.RawMessage) (Question, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Question{}, false
	}

	text, ok := fields["question"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return Question{}, false
	}

	rawOptions, ok := fields["options"].([]any)
	if !ok || len(rawOptions) == 0 {
		return Question{}, false
	}
	options := make([]string, 0, len(rawOptions))
	for _, o := range rawOptions {
		s, ok := o.(string)
		if !ok {
			return Question{}, false
		}
		options = append(options, s)
	}

	correct, ok := integral(fields["correctAnswer"])
	if !ok || correct < 0 || correct >= len(options) {
		return Question{}, false
	}

	points := 1
	if p, ok := integral(fields["points"]); ok && p > 0 {
		points = p
	}

	return Question{
		Text:          text,
		Options:       options,
		CorrectAnswer: correct,
		Points:        points,
	}, true
}

func integral(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// EncodeQuestions is the inverse of ParseQuestions for already valid
// questions, answer key included.
func EncodeQuestions(questions []Question) ([]byte, error) {
	type stored struct {
		Text          string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correctAnswer"`
		Points        int      `json:"points"`
	}
	out := make([]stored, len(questions))
	for i, q := range questions {
		out[i] = stored{q.Text, q.Options, q.CorrectAnswer, q.Points}
	}
	return json.Marshal(out)
}

// AnswerKey lists the correct option index of every question.
func AnswerKey(questions []Question) []int {
	key := make([]int, len(questions))
	for i, q := range questions {
		key[i] = q.CorrectAnswer
	}
	return key
}

// ValidateQuestions is the strict form of ParseQuestions used when an
// assessment is authored: every element must be valid.
func ValidateQuestions(raw []byte) ([]Question, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, errdefs.Validation("questions must be a JSON array")
	}
	if len(elems) == 0 {
		return nil, errdefs.Validation("at least one question is required")
	}

	questions := make([]Question, 0, len(elems))
	var invalid []int
	for i, elem := range elems {
		q, ok := parseQuestion(elem)
		if !ok {
			invalid = append(invalid, i)
			continue
		}
		questions = append(questions, q)
	}
	if len(invalid) > 0 {
		return nil, errdefs.Validation(fmt.Sprintf("malformed questions at positions %v", invalid))
	}
	return questions, nil
}
