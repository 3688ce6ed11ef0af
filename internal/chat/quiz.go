package chat

import (
	"strings"

	"github.com/ameko/fete/internal/domain"
)

// stage describes one quiz question: what to ask, the expected answer letter,
// the replies for both outcomes, and the step that follows. Reply templates
// use {celebrant} as placeholder.
type stage struct {
	ask    string
	answer string
	right  string
	wrong  string
	next   domain.Step
}

var stages = map[domain.Step]stage{
	domain.StepQuizQ1: {
		ask:    "Langage préféré de {celebrant} ? (a) PHP (b) Python (c) JS",
		answer: "b",
		right:  "Bonne réponse !",
		wrong:  "Pas tout à fait...",
		next:   domain.StepQuizQ2,
	},
	domain.StepQuizQ2: {
		ask:    "{celebrant} préfère : (a) coder (b) manger (c) dormir",
		answer: "a",
		right:  "Bravo !",
		wrong:  "Tu ne connais pas si bien {celebrant}.",
		next:   domain.StepQuizQ3,
	},
	domain.StepQuizQ3: {
		ask:    "Année de naissance de {celebrant} ? (a) 1990 (b) 1995 (c) 2000",
		answer: "b",
		right:  "Excellent ! 🎉",
		wrong:  "Presque !",
		next:   domain.StepDone,
	},
}

// quizLength is the number of questions in one pass, used in the final score.
const quizLength = 3

var anecdoteTemplates = []string{
	"{celebrant} a déjà compilé un gâteau en .exe",
	"On dit que {celebrant} ne vieillit pas, {celebrant} fait juste des updates",
	"Si tu lis ça, c'est que tu tiens à {celebrant}",
	"{celebrant} peut déboguer du code les yeux fermés",
	"Le café préféré de {celebrant} : Binary Brew",
}

func fill(template, celebrant string) string {
	return strings.ReplaceAll(template, "{celebrant}", celebrant)
}
