package service

import (
	"math"
	"time"

	"quizgate_backend/internal/model"
)

// roundPercent rounds to two decimal places, matching the stored precision.
func roundPercent(x float64) float64 {
	return math.Round(x*100) / 100
}

// autoGradeObjective scores every non-final objective answer against the
// attempt's question snapshot: the submitted option index equal to the
// recorded correct index earns full snapshot marks, anything else zero.
// Scored answers become final immediately and are never re-opened.
// Returns the answers that changed.
func autoGradeObjective(a *model.QuizAttempt, answers []*model.StudentAnswer, now time.Time) []*model.StudentAnswer {
	questions := a.QuestionSnapshot.ByQuestionID()

	var changed []*model.StudentAnswer
	for _, ans := range answers {
		if ans.IsFinal {
			continue
		}
		q, ok := questions[ans.QuestionID]
		if !ok || !q.Type.IsObjective() {
			continue
		}

		marks := 0.0
		if ans.ValueKind == model.AnswerOption && ans.OptionValue != nil &&
			q.CorrectAnswer != nil && *ans.OptionValue == *q.CorrectAnswer {
			marks = float64(q.Marks)
		}
		ans.MarksAwarded = &marks
		ans.IsFinal = true
		ans.GradedAt = &now
		changed = append(changed, ans)
	}
	return changed
}

// deriveTotals recomputes score, percentage and pass outcome from the full
// answer set. A zero total_marks snapshot yields percentage 0, never a
// division error.
func deriveTotals(a *model.QuizAttempt, answers []*model.StudentAnswer) {
	score := 0.0
	for _, ans := range answers {
		if ans.MarksAwarded != nil {
			score += *ans.MarksAwarded
		}
	}

	percentage := 0.0
	if a.TotalMarks > 0 {
		percentage = roundPercent(score / float64(a.TotalMarks) * 100)
	}
	passed := percentage >= float64(a.PassingPercentage)

	a.Score = &score
	a.Percentage = &percentage
	a.Passed = &passed
}

// hasSubjectiveAnswers reports whether any submitted answer belongs to a
// question that needs manual grading.
func hasSubjectiveAnswers(a *model.QuizAttempt, answers []*model.StudentAnswer) bool {
	questions := a.QuestionSnapshot.ByQuestionID()
	for _, ans := range answers {
		if q, ok := questions[ans.QuestionID]; ok && !q.Type.IsObjective() {
			return true
		}
	}
	return false
}

// countNonFinal counts answers still awaiting manual grading.
func countNonFinal(answers []*model.StudentAnswer) int {
	n := 0
	for _, ans := range answers {
		if !ans.IsFinal {
			n++
		}
	}
	return n
}
