package replay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
)

// Target consumes decoded envelopes. *router.Router satisfies it.
type Target interface {
	Route(env protocol.Envelope) bool
}

// Result counts what happened to each frame.
type Result struct {
	Frames    int           `json:"frames"`
	Routed    int           `json:"routed"`
	Dropped   int           `json:"dropped"`
	Malformed int           `json:"malformed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Player feeds a scenario into a target on a fake clock. Advancing the
// clock between frames fires TTL timers in the store exactly as they
// would have fired live, without waiting.
type Player struct {
	clock  *clock.Fake
	target Target
	logger *zap.Logger
}

// NewPlayer creates a player. clk must be the clock the target's store runs on.
func NewPlayer(clk *clock.Fake, target Target, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{clock: clk, target: target, logger: logger}
}

// Play routes every frame in order. It stops early only if ctx is done.
func (p *Player) Play(ctx context.Context, sc *Scenario) (Result, error) {
	start := p.clock.Now()
	steps, err := sc.Steps(start)
	if err != nil {
		return Result{}, err
	}
	settle, err := sc.settle()
	if err != nil {
		return Result{}, err
	}

	res := Result{Frames: len(steps)}
	var at time.Duration

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if step.Offset > at {
			p.clock.Advance(step.Offset - at)
			at = step.Offset
		}

		env, err := step.Decode()
		if err != nil {
			res.Malformed++
			p.logger.Warn("Malformed scenario frame",
				zap.Int("index", step.Index),
				zap.String("type", step.Type),
				zap.Error(err))
			continue
		}

		if p.target.Route(env) {
			res.Routed++
		} else {
			res.Dropped++
		}
	}

	if settle > 0 {
		p.clock.Advance(settle)
		at += settle
	}
	res.Elapsed = at

	p.logger.Info("Scenario replayed",
		zap.String("scenario", sc.Name),
		zap.Int("frames", res.Frames),
		zap.Int("routed", res.Routed),
		zap.Int("dropped", res.Dropped),
		zap.Int("malformed", res.Malformed),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}
