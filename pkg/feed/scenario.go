package feed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of channel publishes, loaded from
// YAML. The serve command replays scenarios onto a hub so effect
// pipelines can be exercised without a live producer:
//
//	name: checkout-demo
//	loop: true
//	steps:
//	  - publish: {channel: price, value: 10.5}
//	  - wait: 500ms
//	  - publish: {channel: qty, value: 3}
type Scenario struct {
	Name  string `yaml:"name"`
	Loop  bool   `yaml:"loop"`
	Steps []Step `yaml:"steps"`
}

// Step is one scenario entry: either a publish or a wait.
type Step struct {
	Publish *PublishStep `yaml:"publish"`
	Wait    string       `yaml:"wait"`

	wait time.Duration
}

// PublishStep names a channel and the value to publish on it.
type PublishStep struct {
	Channel string `yaml:"channel"`
	Value   any    `yaml:"value"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feed: read scenario %s: %w", path, err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates a YAML scenario. Unknown fields
// are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadScenario, err)
	}

	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrBadScenario)
	}
	for i := range sc.Steps {
		step := &sc.Steps[i]
		switch {
		case step.Publish != nil && step.Wait != "":
			return nil, fmt.Errorf("%w: step %d mixes publish and wait", ErrBadScenario, i)
		case step.Publish != nil:
			if step.Publish.Channel == "" {
				return nil, fmt.Errorf("%w: step %d publish has no channel", ErrBadScenario, i)
			}
		case step.Wait != "":
			d, err := time.ParseDuration(step.Wait)
			if err != nil {
				return nil, fmt.Errorf("%w: step %d wait %q: %v", ErrBadScenario, i, step.Wait, err)
			}
			if d < 0 {
				return nil, fmt.Errorf("%w: step %d wait is negative", ErrBadScenario, i)
			}
			step.wait = d
		default:
			return nil, fmt.Errorf("%w: step %d is empty", ErrBadScenario, i)
		}
	}
	return &sc, nil
}

// Channels returns the distinct channels the scenario publishes on, in
// first-appearance order.
func (s *Scenario) Channels() []string {
	seen := make(map[string]struct{})
	var channels []string
	for i := range s.Steps {
		p := s.Steps[i].Publish
		if p == nil {
			continue
		}
		if _, ok := seen[p.Channel]; ok {
			continue
		}
		seen[p.Channel] = struct{}{}
		channels = append(channels, p.Channel)
	}
	return channels
}

// Run replays the scenario onto hub. With Loop set it repeats until ctx
// is done; otherwise it returns after one round.
func (s *Scenario) Run(ctx context.Context, hub *Hub) error {
	for {
		for i := range s.Steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			step := &s.Steps[i]

			if step.Publish != nil {
				if err := hub.Publish(step.Publish.Channel, step.Publish.Value); err != nil {
					return fmt.Errorf("feed: scenario step %d: %w", i, err)
				}
				continue
			}

			if step.wait > 0 {
				timer := time.NewTimer(step.wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
			}
		}
		if !s.Loop {
			return nil
		}
	}
}
