package ui

import "math"

// AnimState drives the line slide and glow between ticks.
type AnimState struct {
	TransitionProgress float64
	GlowIntensity      float64
	PrevScrollY        float64
	ScrollPosition     float64
	TargetScrollY      float64
}

func (a *AnimState) Reset() {
	*a = AnimState{}
}

func (a *AnimState) Update(newLine bool, transitionTicks int) {
	if transitionTicks <= 0 {
		transitionTicks = 8
	}

	if newLine {
		a.TransitionProgress = 0
		a.GlowIntensity = 1.0
		a.PrevScrollY = a.ScrollPosition
	}

	if a.TransitionProgress < 1.0 {
		a.TransitionProgress += 1.0 / float64(transitionTicks)
		if a.TransitionProgress > 1.0 {
			a.TransitionProgress = 1.0
		}
	}

	a.ScrollPosition = lerp(a.PrevScrollY, a.TargetScrollY, easeOutCubic(a.TransitionProgress))

	if a.GlowIntensity > 0 {
		a.GlowIntensity *= 0.85
		if a.GlowIntensity < 0.01 {
			a.GlowIntensity = 0
		}
	}
}

func (a *AnimState) SlideOffset() float64 {
	return easeOutCubic(a.TransitionProgress)
}

func easeOutCubic(t float64) float64 {
	if t >= 1 {
		return 1
	}
	if t <= 0 {
		return 0
	}
	return 1 - math.Pow(1-t, 3)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
