package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteScenario writes a scenario to a YAML file
func WriteScenario(scenario *Scenario, path string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScenario reads and checks a scenario from a YAML file
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &scenario, nil
}

// Validate checks that keyframes are ordered in time and stay within the clip.
func (s *Scenario) Validate() error {
	if s.FPS <= 0 || s.Duration <= 0 {
		return fmt.Errorf("scenario needs a positive fps and duration")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("scenario needs a positive size, got %dx%d", s.Width, s.Height)
	}
	if len(s.Keyframes) == 0 {
		return fmt.Errorf("scenario has no keyframes")
	}
	for i, kf := range s.Keyframes {
		if kf.Progress < 0 || kf.Progress > 1 {
			return fmt.Errorf("keyframe %d: progress %v outside [0,1]", i, kf.Progress)
		}
		if kf.Time < 0 || kf.Time > s.Duration {
			return fmt.Errorf("keyframe %d: time %v outside the clip", i, kf.Time)
		}
		if i > 0 && kf.Time < s.Keyframes[i-1].Time {
			return fmt.Errorf("keyframe %d: time goes backwards", i)
		}
	}
	return nil
}
