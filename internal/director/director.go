package director

import (
	"fmt"
	"sort"
)

// Director plans a scroll through a list of stops on the page, dwelling at each.
type Director struct {
	Width, Height int
	FPS           int
	MinDwell      float64 // Minimum time per stop (seconds)
	MaxDwell      float64 // Maximum time per stop (seconds)
	Travel        float64 // Time spent scrolling between stops (seconds)
}

// NewDirector creates a new Director with default settings
func NewDirector(width, height, fps int) *Director {
	return &Director{
		Width:    width,
		Height:   height,
		FPS:      fps,
		MinDwell: 0.5,
		MaxDwell: 3.0,
		Travel:   1.0,
	}
}

// GenerateScenario creates a scenario visiting stops in scroll order, starting
// at the top and ending at the bottom of the page.
func (d *Director) GenerateScenario(stops []float64, totalDuration float64) (*Scenario, error) {
	if totalDuration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	points, err := d.sortStops(stops)
	if err != nil {
		return nil, err
	}

	dwell := d.calculateDwellTime(totalDuration, len(points))

	var keyframes []Keyframe
	t := 0.0
	for i, p := range points {
		label := fmt.Sprintf("stop_%d", i+1)
		keyframes = append(keyframes, Keyframe{Time: t, Progress: p, Label: label})
		t += dwell
		keyframes = append(keyframes, Keyframe{Time: t, Progress: p, Label: label})
		if i < len(points)-1 {
			t += d.Travel
		}
	}

	return &Scenario{
		Version:   "1.0",
		Duration:  t,
		FPS:       d.FPS,
		Width:     d.Width,
		Height:    d.Height,
		Keyframes: keyframes,
	}, nil
}

// sortStops orders the stops and makes sure the top and the bottom of the page are visited.
func (d *Director) sortStops(stops []float64) ([]float64, error) {
	points := []float64{0, 1}
	for _, s := range stops {
		if s < 0 || s > 1 {
			return nil, fmt.Errorf("stop %v outside [0,1]", s)
		}
		points = append(points, s)
	}
	sort.Float64s(points)

	uniq := points[:1]
	for _, p := range points[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	return uniq, nil
}

// calculateDwellTime determines how long to hold each stop
func (d *Director) calculateDwellTime(totalDuration float64, stopCount int) float64 {
	available := totalDuration - float64(stopCount-1)*d.Travel
	if available <= 0 {
		available = totalDuration
	}

	dwell := available / float64(stopCount)
	if dwell < d.MinDwell {
		dwell = d.MinDwell
	}
	if dwell > d.MaxDwell {
		dwell = d.MaxDwell
	}
	return dwell
}
