package assessment

import "github.com/gokatarajesh/skill-assessment/internal/question"

// NextBand moves one step harder on a correct answer and one step easier on
// an incorrect one, clamped at the ends of the ladder.
func NextBand(current question.Band, correct bool) question.Band {
	if correct {
		return current.Harder()
	}
	return current.Easier()
}
