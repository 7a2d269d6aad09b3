package quiz

import (
	"fmt"
	"math"
	"sort"

	"edupro/internal/errdefs"
)

// Score compares every answer with the question's correct option and scales
// the number of hits to maxScore. Unanswered questions count as wrong.
func Score(questions []Question, answers Answers, maxScore int) int {
	n := len(questions)
	if n == 0 {
		return 0
	}
	correct := 0
	for i, q := range questions {
		if chosen, ok := answers[i]; ok && chosen == q.CorrectAnswer {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(n) * float64(maxScore)))
}

// Missing returns the question indexes in [0, n) without an answer.
func Missing(n int, answers Answers) []int {
	var missing []int
	for i := 0; i < n; i++ {
		if _, ok := answers[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// CheckComplete reports ErrUnanswered unless every question is answered.
func CheckComplete(n int, answers Answers) error {
	missing := Missing(n, answers)
	if len(missing) == 0 {
		return nil
	}
	sort.Ints(missing)
	return fmt.Errorf("%w: unanswered questions %v", errdefs.ErrUnanswered, missing)
}

// CheckOptions reports a validation error for answers that point outside the
// question list or outside a question's options.
func CheckOptions(questions []Question, answers Answers) error {
	for i, chosen := range answers {
		if i < 0 || i >= len(questions) {
			return errdefs.Validation(fmt.Sprintf("question %d does not exist", i))
		}
		if chosen < 0 || chosen >= len(questions[i].Options) {
			return errdefs.Validation(fmt.Sprintf("option %d does not exist for question %d", chosen, i))
		}
	}
	return nil
}

func Percentage(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(maxScore)*10000) / 100
}

func Passed(score, maxScore, passPercentage int) bool {
	return Percentage(score, maxScore) >= float64(passPercentage)
}
