package logging

// ProgressSampler thins per-tick progress into one log line per percentage
// step. The first tick and the final tick are always reported.
type ProgressSampler struct {
	step       float64
	total      int
	lastBucket int
}

// NewProgressSampler returns a sampler emitting every step percent (default 5).
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step, lastBucket: -1}
}

// Sample reports the completion percentage for done of total ticks and
// whether it starts a new step. A change of total starts a new sequence.
func (s *ProgressSampler) Sample(done, total int) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	done = min(max(done, 0), total)
	percent := float64(done) * 100 / float64(total)
	if s == nil {
		return percent, true
	}
	if total != s.total {
		s.total = total
		s.lastBucket = -1
	}
	bucket := int(percent / s.step)
	if done == total {
		bucket = int(100/s.step) + 1
	}
	if bucket <= s.lastBucket {
		return percent, false
	}
	s.lastBucket = bucket
	return percent, true
}
