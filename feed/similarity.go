package feed

import (
	"math"

	"github.com/Luismorlan/feedsim/model"
)

// Similarity scores how alike c is to t: one point per equal categorical
// attribute among leaning, language, education level, gender, toxicity and
// the five personality buckets, plus 1 - |age delta| / 100. The age term is
// not clamped and turns negative past a 100 years gap. The store ranks
// users with the same formula in SQL.
func Similarity(t, c model.User) float64 {
	score := 0.0
	for _, pair := range [][2]string{
		{t.Leaning, c.Leaning},
		{t.Language, c.Language},
		{t.EducationLevel, c.EducationLevel},
		{t.Gender, c.Gender},
		{t.Toxicity, c.Toxicity},
		{t.Oe, c.Oe},
		{t.Co, c.Co},
		{t.Ex, c.Ex},
		{t.Ag, c.Ag},
		{t.Ne, c.Ne},
	} {
		if pair[0] == pair[1] {
			score++
		}
	}
	return score + (1 - math.Abs(float64(c.Age-t.Age))/100)
}
