package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/router"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/store"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/toolbar"
)

const session = `
name: pricing-review
description: competitor scan with a bad frame and an unknown kind
settle: 6s
frames:
  - type: show_progress
    payload:
      progress_id: scan
      message: Scanning market
      percentage: 150
  - at: 1s
    type: show_competitor_context
    payload:
      competitors:
        - company_name: Acme
          category: Direct Competitors
        - company_name: Globex
  - at: 2s
    type: show_notification
    payload:
      message: Found 2 competitors
      type: success
  - at: 2s
    type: not_a_kind
    payload: {}
  - type: show_notification
  - at: 3s
    type: highlight_element
    payload:
      element_id: pricing-table
`

func newPlayer(t *testing.T) (*Player, *store.Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	st := store.New(store.Options{Clock: clk})
	t.Cleanup(st.Close)

	r := router.New(router.Targets{Store: st}, nil, nil)
	return NewPlayer(clk, r, nil), st, clk
}

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(session))
	require.NoError(t, err)

	assert.Equal(t, "pricing-review", sc.Name)
	assert.Len(t, sc.Frames, 6)
	assert.Equal(t, "show_competitor_context", sc.Frames[1].Type)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "frames: [unclosed"},
		{"no frames", "name: empty\nframes: []\n"},
		{"bad settle", "settle: soon\nframes:\n  - type: show_progress\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("frames: []\n"))
	assert.ErrorIs(t, err, ErrEmptyScenario)
}

func TestStepsOffsets(t *testing.T) {
	sc, err := Parse([]byte(session))
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	steps, err := sc.Steps(start)
	require.NoError(t, err)

	offsets := make([]time.Duration, len(steps))
	for i, s := range steps {
		offsets[i] = s.Offset
	}
	// Frames without "at" inherit the previous offset.
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second, 3 * time.Second}, offsets)

	env, err := steps[2].Decode()
	require.NoError(t, err)
	assert.True(t, start.Add(2*time.Second).Equal(env.Timestamp))
}

func TestStepsRejectsBackwardsOffset(t *testing.T) {
	sc := &Scenario{Frames: []Frame{
		{At: "2s", Type: "show_progress"},
		{At: "1s", Type: "show_progress"},
	}}
	_, err := sc.Steps(time.Now())
	assert.Error(t, err)

	sc = &Scenario{Frames: []Frame{{At: "later", Type: "show_progress"}}}
	_, err = sc.Steps(time.Now())
	assert.Error(t, err)
}

func TestPlay(t *testing.T) {
	p, st, _ := newPlayer(t)
	sc, err := Parse([]byte(session))
	require.NoError(t, err)

	res, err := p.Play(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, Result{
		Frames:    6,
		Routed:    4,
		Dropped:   1,
		Malformed: 1,
		Elapsed:   9 * time.Second,
	}, res)

	// At 9s the notification (2s + 5s) and highlight (3s + 2s) have expired;
	// cards live for 30s and progress until closed.
	counts := st.Counts()
	assert.Equal(t, 2, counts.Cards)
	assert.Equal(t, 0, counts.Notifications)
	assert.Equal(t, 0, counts.Highlights)
	assert.Equal(t, 1, counts.Progress)
	assert.Equal(t, 2, counts.CarouselItems)

	progress := st.Progress()
	require.Len(t, progress, 1)
	require.NotNil(t, progress[0].Percentage)
	assert.Equal(t, 100, *progress[0].Percentage)

	carousel, ok := st.Carousel(store.CarouselCompetitors)
	require.True(t, ok)
	assert.Equal(t, store.CarouselExpanded, carousel.Mode())

	sum := toolbar.Summarize(st)
	assert.Empty(t, sum.Items, "expanded carousels are not docked")
	assert.Equal(t, 1, sum.Badge)
}

func TestPlayStopsOnCancel(t *testing.T) {
	p, _, _ := newPlayer(t)
	sc, err := Parse([]byte(session))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Play(ctx, sc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Routed)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(session), 0o644))

	sc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pricing-review", sc.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
