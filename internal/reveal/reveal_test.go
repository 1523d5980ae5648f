package reveal

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestHoldDuration(t *testing.T) {
	o := DefaultOptions()
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"four words clamp to min", "we rode at dawn", 0.35},
		{"forty words clamp to max", strings.Repeat("word ", 40), 1.0},
		{"empty line", "", 0.35},
		{"in range", strings.Repeat("w ", 10), 0.625},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HoldDuration(tt.text, o); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("HoldDuration(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStepsOmitMissingElements(t *testing.T) {
	steps := Steps([]Element{{Kind: Line, Text: "only a line"}}, Options{})
	if len(steps) != 1 {
		t.Fatalf("expected a single step, got %d", len(steps))
	}
	if steps[0].Reveal != 0.6 || steps[0].Hold != 0.35 {
		t.Errorf("unexpected step %+v", steps[0])
	}

	if got := Steps(nil, Options{}); len(got) != 0 {
		t.Errorf("expected no steps, got %v", got)
	}
}

func TestStepsOrderAndDurations(t *testing.T) {
	elements := []Element{
		{Kind: Content},
		{Kind: Line, Text: "one two three"},
		{Kind: Line, Text: strings.Repeat("x ", 12)},
		{Kind: CallToAction, Text: "Watch"},
	}
	steps := Steps(elements, DefaultOptions())

	want := []Step{
		{Target: 0, Reveal: 0.9},
		{Target: 1, Reveal: 0.6, Hold: 0.35},
		{Target: 2, Reveal: 0.6, Hold: 0.75},
		{Target: 3, Reveal: 0.6},
	}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("expected %+v, got %+v", want, steps)
	}
	if d := TotalDuration(steps); math.Abs(d-3.8) > 1e-9 {
		t.Errorf("expected total 3.8s, got %v", d)
	}
}
