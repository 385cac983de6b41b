package replay

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
)

// ErrEmptyScenario is returned for a scenario with no frames.
var ErrEmptyScenario = errors.New("scenario has no frames")

// Scenario is a recorded agent session: a named list of frames, each at an
// offset from the start of the session.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Settle advances the clock this far past the last frame before the
	// final state is read, so TTL expiry can be part of a scenario.
	Settle string  `yaml:"settle,omitempty"`
	Frames []Frame `yaml:"frames"`
}

// Frame is one recorded envelope in wire form.
type Frame struct {
	// At is a Go duration offset ("1.5s"). Empty means the same instant as
	// the previous frame.
	At      string                 `yaml:"at,omitempty"`
	Type    string                 `yaml:"type"`
	Payload map[string]interface{} `yaml:"payload,omitempty"`
}

// Step is a frame resolved to its offset and encoded wire bytes.
type Step struct {
	Index  int
	Offset time.Duration
	Type   string
	Raw    []byte
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(content)
}

// Parse decodes scenario YAML.
func Parse(content []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(content, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(sc.Frames) == 0 {
		return nil, ErrEmptyScenario
	}
	if _, err := sc.settle(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) settle() (time.Duration, error) {
	if sc.Settle == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(sc.Settle)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid settle %q", sc.Settle)
	}
	return d, nil
}

// Steps resolves offsets and encodes every frame as it would arrive on the
// wire, timestamped relative to start. Offsets must not go backwards.
func (sc *Scenario) Steps(start time.Time) ([]Step, error) {
	steps := make([]Step, 0, len(sc.Frames))
	var last time.Duration

	for i, f := range sc.Frames {
		offset := last
		if f.At != "" {
			d, err := time.ParseDuration(f.At)
			if err != nil {
				return nil, fmt.Errorf("frame %d: invalid at %q: %w", i, f.At, err)
			}
			if d < last {
				return nil, fmt.Errorf("frame %d: at %s is before previous frame at %s", i, d, last)
			}
			offset = d
		}
		last = offset

		wire := map[string]interface{}{
			"type":      f.Type,
			"timestamp": start.Add(offset).UnixMilli(),
		}
		if f.Payload != nil {
			wire["payload"] = f.Payload
		}
		raw, err := sonic.Marshal(wire)
		if err != nil {
			return nil, fmt.Errorf("frame %d: encode: %w", i, err)
		}

		steps = append(steps, Step{Index: i, Offset: offset, Type: f.Type, Raw: raw})
	}
	return steps, nil
}

// Decode parses the step through the same codec the transport uses.
func (s Step) Decode() (protocol.Envelope, error) {
	return protocol.Decode(s.Raw)
}
