package compositor

// Crossfade holds the title and credits timings in seconds.
type Crossfade struct {
	TitleHold   float64
	TitleFade   float64
	CreditsHold float64
	CreditsFade float64
}

// TitleAlpha is the title page weight at time t: 1 during the hold, falling
// linearly to 0 over the fade, and 0 afterwards.
func (c Crossfade) TitleAlpha(t float64) float64 {
	switch {
	case t < c.TitleHold:
		return 1
	case t <= c.TitleHold+c.TitleFade:
		return (c.TitleHold + c.TitleFade - t) / c.TitleFade
	default:
		return 0
	}
}

// CreditsAlpha is the credits page weight at time t for a timeline of the given
// duration: 0 until the fade window, rising linearly to 1, then held at 1.
func (c Crossfade) CreditsAlpha(t, duration float64) float64 {
	holdStart := duration - c.CreditsHold
	fadeStart := holdStart - c.CreditsFade
	switch {
	case t >= holdStart:
		return 1
	case t >= fadeStart:
		return 1 - (holdStart-t)/c.CreditsFade
	default:
		return 0
	}
}

// inTitle reports whether t falls in the title window.
func (c Crossfade) inTitle(t float64) bool {
	return t <= c.TitleHold+c.TitleFade
}

// inCredits reports whether t falls in the credits window.
func (c Crossfade) inCredits(t, duration float64) bool {
	return t >= duration-(c.CreditsHold+c.CreditsFade)
}
