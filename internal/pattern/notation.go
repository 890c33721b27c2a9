package pattern

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/icco/mej/internal/voice"
)

// Event is one token placed on a step grid. Span is the length of the slot
// it was written in, in steps.
type Event struct {
	Step  int
	Span  float64
	Token string
}

// Place lays a mini-notation cycle over steps grid slots.
//
// Whitespace separates slots, which share the cycle evenly. "~" is a rest,
// "x*n" plays x n times within its slot, "a,b" plays a and b together and
// "[a b]" subdivides a slot. Malformed repeat counts drop the token.
func Place(src string, steps int) []Event {
	if steps <= 0 {
		return nil
	}
	var events []Event
	slots := splitTop(src)
	span := 1.0 / float64(max(len(slots), 1))
	for i, slot := range slots {
		placeSlot(slot, float64(i)*span, span, steps, &events)
	}
	return events
}

func placeSlot(slot string, start, span float64, steps int, out *[]Event) {
	if strings.HasPrefix(slot, "[") && strings.HasSuffix(slot, "]") {
		inner := splitTop(slot[1 : len(slot)-1])
		if len(inner) == 0 {
			return
		}
		sub := span / float64(len(inner))
		for j, s := range inner {
			placeSlot(s, start+float64(j)*sub, sub, steps, out)
		}
		return
	}

	for _, part := range strings.Split(slot, ",") {
		tok, reps := part, 1
		if name, count, ok := strings.Cut(part, "*"); ok {
			n, err := strconv.Atoi(count)
			if err != nil || n <= 0 {
				continue
			}
			tok, reps = name, n
		}
		if tok == "" || tok == "~" {
			continue
		}
		hitSpan := span / float64(reps)
		for k := range reps {
			pos := start + hitSpan*float64(k)
			step := min(int(pos*float64(steps)+1e-9), steps-1)
			*out = append(*out, Event{Step: step, Span: hitSpan * float64(steps), Token: tok})
		}
	}
}

// splitTop splits on whitespace outside brackets.
func splitTop(s string) []string {
	var (
		parts []string
		depth int
		start = -1
	)
	for i, r := range s {
		switch {
		case r == '[':
			if start < 0 {
				start = i
			}
			depth++
		case r == ']':
			depth--
		case unicode.IsSpace(r) && depth == 0:
			if start >= 0 {
				parts = append(parts, s[start:i])
				start = -1
			}
			continue
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		parts = append(parts, s[start:])
	}
	return parts
}

// CompileDrums compiles a drum cycle onto a steps-long line. Hits that
// land in the same step become repeated triggers of that voice. Unknown
// tokens are dropped.
func CompileDrums(src string, steps int, velocity float64) Line {
	line := NewLine(steps)
	for _, ev := range Place(src, steps) {
		id, ok := voice.ParseToken(ev.Token)
		if !ok {
			continue
		}
		line.Add(ev.Step, Trigger{Voice: id, Velocity: velocity})
	}
	return line
}

// Euclid distributes k onsets as evenly as possible over n pulses,
// starting on the first pulse.
func Euclid(k, n int) []bool {
	if n <= 0 {
		return nil
	}
	k = max(0, min(k, n))
	out := make([]bool, n)
	for i := range n {
		out[i] = (i*k)%n < k
	}
	return out
}

// EuclidLine places E(k, pulses) hits of id on a steps-long grid.
func EuclidLine(id voice.ID, k, pulses, steps int, velocity float64) Line {
	line := NewLine(steps)
	if pulses <= 0 {
		return line
	}
	for i, hit := range Euclid(k, pulses) {
		if hit {
			line.Add(i*steps/pulses, Trigger{Voice: id, Velocity: velocity})
		}
	}
	return line
}
