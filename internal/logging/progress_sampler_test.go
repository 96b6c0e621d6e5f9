package logging

import (
	"slices"
	"testing"
)

func emitted(s *ProgressSampler, total int, ticks []int) []int {
	var out []int
	for _, done := range ticks {
		if _, ok := s.Sample(done, total); ok {
			out = append(out, done)
		}
	}
	return out
}

func TestProgressSamplerSteps(t *testing.T) {
	tests := []struct {
		name  string
		step  float64
		total int
		ticks []int
		want  []int
	}{
		{
			name:  "every tick of a short render",
			step:  10,
			total: 20,
			ticks: []int{1, 2, 3, 4, 5, 6, 19, 20},
			want:  []int{1, 2, 4, 6, 19, 20},
		},
		{
			name:  "long render emits once per step",
			step:  25,
			total: 400,
			ticks: []int{1, 50, 99, 100, 101, 250, 399, 400},
			want:  []int{1, 100, 250, 399, 400},
		},
		{
			name:  "final tick lands on a step boundary",
			step:  50,
			total: 4,
			ticks: []int{2, 4},
			want:  []int{2, 4},
		},
		{
			name:  "repeated ticks are quiet",
			step:  10,
			total: 10,
			ticks: []int{3, 3, 3, 10, 10},
			want:  []int{3, 10},
		},
		{
			name:  "default step",
			step:  0,
			total: 100,
			ticks: []int{1, 4, 5, 9, 10},
			want:  []int{1, 5, 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := emitted(NewProgressSampler(tt.step), tt.total, tt.ticks)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("emitted at %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressSamplerPercent(t *testing.T) {
	s := NewProgressSampler(10)
	if percent, _ := s.Sample(36, 72); percent != 50 {
		t.Fatalf("percent = %v, want 50", percent)
	}
	if percent, _ := s.Sample(90, 72); percent != 100 {
		t.Fatalf("overshoot percent = %v, want 100", percent)
	}
	if _, ok := s.Sample(5, 0); ok {
		t.Fatal("unknown total should not emit")
	}
}

func TestProgressSamplerNewTotalRestarts(t *testing.T) {
	s := NewProgressSampler(50)
	got := emitted(s, 10, []int{6, 10})
	got = append(got, emitted(s, 20, []int{1, 20})...)
	if !slices.Equal(got, []int{6, 10, 1, 20}) {
		t.Fatalf("emitted at %v", got)
	}
}

func TestProgressSamplerNilAlwaysEmits(t *testing.T) {
	var s *ProgressSampler
	if _, ok := s.Sample(1, 10); !ok {
		t.Fatal("nil sampler should emit")
	}
}
