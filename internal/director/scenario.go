package director

// Scenario is a scripted scroll through the page, used to record a clip of the background.
type Scenario struct {
	Version   string     `yaml:"version"`
	Duration  float64    `yaml:"duration"` // seconds
	FPS       int        `yaml:"fps"`
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Keyframe pins the scroll progress at a moment of the clip.
type Keyframe struct {
	Time     float64 `yaml:"time"`            // seconds from the start
	Progress float64 `yaml:"progress"`        // scroll progress in [0,1]
	Label    string  `yaml:"label,omitempty"` // what the page shows here
}

// Frames is the number of video frames the scenario spans.
func (s *Scenario) Frames() int {
	if s.FPS <= 0 || s.Duration <= 0 {
		return 0
	}
	return int(s.Duration*float64(s.FPS) + 0.5)
}
