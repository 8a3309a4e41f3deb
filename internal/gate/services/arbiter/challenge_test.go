package arbiter

import (
	"strconv"
	"strings"
	"testing"
)

// solveArithmetic evaluates a rendered arithmetic question with × binding
// tighter than + and -.
func solveArithmetic(t *testing.T, question string) string {
	t.Helper()
	tokens := strings.Fields(question)
	if len(tokens)%2 != 1 {
		t.Fatalf("malformed question %q", question)
	}

	var values []int
	var ops []string
	for i, tok := range tokens {
		if i%2 == 0 {
			v, err := strconv.Atoi(tok)
			if err != nil {
				t.Fatalf("malformed question %q: %v", question, err)
			}
			values = append(values, v)
		} else {
			ops = append(ops, tok)
		}
	}

	for i := 0; i < len(ops); {
		if ops[i] == "×" {
			values[i] *= values[i+1]
			values = append(values[:i+1], values[i+2:]...)
			ops = append(ops[:i], ops[i+1:]...)
			continue
		}
		i++
	}
	result := values[0]
	for i, op := range ops {
		switch op {
		case "+":
			result += values[i+1]
		case "-":
			result -= values[i+1]
		default:
			t.Fatalf("unexpected operator %q in %q", op, question)
		}
	}
	return strconv.Itoa(result)
}

func TestArithmeticProblem(t *testing.T) {
	tests := []struct {
		a, b, c      int
		op           byte
		wantQuestion string
		wantAnswer   int
	}{
		{a: 50, b: 20, c: 3, op: '+', wantQuestion: "50 + 20 × 3", wantAnswer: 110},
		{a: 50, b: 20, c: 3, op: '-', wantQuestion: "150 - 20", wantAnswer: 130},
		{a: 50, b: 20, c: 3, op: 'x', wantQuestion: "50 × 3 + 20", wantAnswer: 170},
		{a: 12, b: 99, c: 9, op: '+', wantQuestion: "12 + 99 × 9", wantAnswer: 903},
	}
	for _, tt := range tests {
		question, answer := arithmeticProblem(tt.a, tt.b, tt.c, tt.op)
		if question != tt.wantQuestion {
			t.Errorf("arithmeticProblem(%d,%d,%d,%q) question = %q, want %q", tt.a, tt.b, tt.c, tt.op, question, tt.wantQuestion)
		}
		if answer != tt.wantAnswer {
			t.Errorf("arithmeticProblem(%d,%d,%d,%q) answer = %d, want %d", tt.a, tt.b, tt.c, tt.op, answer, tt.wantAnswer)
		}
	}
}

func TestNewArithmeticChallenge(t *testing.T) {
	for i := 0; i < 100; i++ {
		c := newArithmeticChallenge()
		if !c.numeric {
			t.Fatal("arithmetic challenges compare numerically")
		}
		got := solveArithmetic(t, c.question)
		if !c.check(got) {
			t.Fatalf("computed answer %q rejected for %q (expected %q)", got, c.question, c.expected)
		}
		if c.check(got + "1") {
			t.Fatalf("wrong answer accepted for %q", c.question)
		}
	}
}

func TestChallengeCheck_Numeric(t *testing.T) {
	c := challenge{question: "50 + 20 × 3", expected: "110", numeric: true}

	for _, answer := range []string{"110", " 110 ", "+110"} {
		if !c.check(answer) {
			t.Errorf("check(%q) = false, want true", answer)
		}
	}
	for _, answer := range []string{"111", "", "abc", "11 0"} {
		if c.check(answer) {
			t.Errorf("check(%q) = true, want false", answer)
		}
	}
}

func TestChallengeCheck_Transcription(t *testing.T) {
	c := newTranscriptionChallenge()

	if !c.check(c.question) {
		t.Error("exact transcription rejected")
	}
	if !c.check("  " + strings.ToUpper(c.question) + "  ") {
		t.Error("case and surrounding whitespace should be forgiven")
	}
	if c.check(c.question + " extra") {
		t.Error("mismatched transcription accepted")
	}
}

func TestNewApproverCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := newApproverCode()
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}
