package arbiter

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// transcriptionPhrases are the prompts for transcription challenges.
var transcriptionPhrases = []string{
	"I choose focus over distraction",
	"My time is valuable and I spend it wisely",
	"Deep work creates deep results",
	"I am in control of my attention",
	"Every minute counts toward my goals",
	"I will not let algorithms steal my time",
	"Focus is a superpower I choose to activate",
}

// challenge is one generated challenge instance: the rendered question and
// the expected answer in comparable form.
type challenge struct {
	question string
	expected string
	numeric  bool
}

// arithmeticProblem renders one of the three operator templates and
// computes the exact integer answer with operator precedence as written.
// a and b are in [12,99], c is the scale in [2,9].
func arithmeticProblem(a, b, c int, op byte) (string, int) {
	switch op {
	case '+':
		return fmt.Sprintf("%d + %d × %d", a, b, c), a + b*c
	case '-':
		return fmt.Sprintf("%d - %d", a*c, b), a*c - b
	default: // '×'
		return fmt.Sprintf("%d × %d + %d", a, c, b), a*c + b
	}
}

// newArithmeticChallenge generates a fresh arithmetic instance.
func newArithmeticChallenge() challenge {
	a := 12 + rand.IntN(88) // [12,99]
	b := 12 + rand.IntN(88)
	c := 2 + rand.IntN(8) // [2,9]
	op := []byte{'+', '-', '×'}[rand.IntN(3)]
	question, answer := arithmeticProblem(a, b, c, op)
	return challenge{question: question, expected: strconv.Itoa(answer), numeric: true}
}

// newTranscriptionChallenge generates a fresh transcription instance.
func newTranscriptionChallenge() challenge {
	phrase := transcriptionPhrases[rand.IntN(len(transcriptionPhrases))]
	return challenge{question: phrase, expected: phrase}
}

// check compares a submitted answer against the expected one. Arithmetic
// answers compare numerically; transcription answers compare trimmed and
// case-insensitively.
func (c challenge) check(answer string) bool {
	if c.numeric {
		got, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			return false
		}
		want, err := strconv.Atoi(c.expected)
		return err == nil && got == want
	}
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(c.expected))
}

// newApproverCode issues a 6-digit decimal code in [100000, 999999].
func newApproverCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}
