package renderer

import (
	"github.com/ivlev/scrollframe/internal/director"
)

// InterpolateKeyframes calculates the scroll progress at a given time by interpolating between keyframes
func InterpolateKeyframes(keyframes []director.Keyframe, currentTime float64) float64 {
	if len(keyframes) == 0 {
		return 0
	}

	// If before first keyframe, use first keyframe
	if currentTime <= keyframes[0].Time {
		return keyframes[0].Progress
	}

	// If after last keyframe, use last keyframe
	if currentTime >= keyframes[len(keyframes)-1].Time {
		return keyframes[len(keyframes)-1].Progress
	}

	// Find surrounding keyframes
	var prevKf, nextKf director.Keyframe
	for i := 0; i < len(keyframes)-1; i++ {
		if currentTime >= keyframes[i].Time && currentTime < keyframes[i+1].Time {
			prevKf = keyframes[i]
			nextKf = keyframes[i+1]
			break
		}
	}

	// Calculate interpolation factor (0.0 to 1.0)
	timeDelta := nextKf.Time - prevKf.Time
	if timeDelta == 0 {
		return nextKf.Progress
	}
	t := (currentTime - prevKf.Time) / timeDelta

	// Apply easing (smooth in-out)
	t = easeInOutCubic(t)

	return lerp(prevKf.Progress, nextKf.Progress, t)
}

// Timeline samples the scroll progress of every video frame of a scenario.
func Timeline(s *director.Scenario) []float64 {
	n := s.Frames()
	out := make([]float64, n)
	for i := range out {
		out[i] = InterpolateKeyframes(s.Keyframes, float64(i)/float64(s.FPS))
	}
	return out
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
