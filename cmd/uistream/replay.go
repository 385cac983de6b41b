package main

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/replay"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/router"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/store"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/toolbar"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file.yaml>",
	Short: "Play a recorded session through the router and print the toolbar",
	Long: `Play a recorded session through the router into a fresh store on a
simulated clock, then print the final toolbar summary. TTL expiry happens
exactly as it would live, without waiting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")

		sc, err := replay.LoadFile(args[0])
		if err != nil {
			return err
		}

		cfg := config.LoadOrDefault()
		logger := logging.NewNop()
		if verbose {
			logger = logging.NewDevelopment()
		}
		defer logger.Sync()

		out, err := runReplay(cmd, sc, cfg, logger)
		if err != nil {
			return err
		}

		if asJSON {
			data, err := sonic.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		printReplay(cmd.OutOrStdout(), sc, out)
		return nil
	},
}

func init() {
	replayCmd.Flags().Bool("json", false, "Print the result as JSON")
	replayCmd.Flags().BoolP("verbose", "v", false, "Log every routed frame")
}

type replayOutput struct {
	Result  replay.Result   `json:"result"`
	Toolbar toolbar.Summary `json:"toolbar"`
	Graphs  []string        `json:"graphs"`
}

// graphTitles records forwarded graphs; replay has no view to render them.
type graphTitles struct {
	titles []string
}

func (g *graphTitles) ForwardGraph(gr protocol.Graph, _ time.Time) {
	g.titles = append(g.titles, gr.Title)
}

func runReplay(cmd *cobra.Command, sc *replay.Scenario, cfg *config.Config, logger *logging.Logger) (replayOutput, error) {
	clk := clock.NewFake(time.Now())
	st := store.New(store.Options{
		CardTTL:         cfg.Store.CardTTL,
		NotificationTTL: cfg.Store.NotificationTTL,
		HighlightTTL:    cfg.Store.HighlightTTL,
		Clock:           clk,
		Logger:          logger.For(logging.ComponentStore),
	})
	defer st.Close()

	graphs := &graphTitles{titles: []string{}}
	rt := router.New(router.Targets{Store: st, Graphs: graphs}, logger.For(logging.ComponentRouter), nil)

	res, err := replay.NewPlayer(clk, rt, logger.For(logging.ComponentReplay)).Play(cmd.Context(), sc)
	if err != nil {
		return replayOutput{}, err
	}
	return replayOutput{
		Result:  res,
		Toolbar: toolbar.Summarize(st),
		Graphs:  graphs.titles,
	}, nil
}

func printReplay(w io.Writer, sc *replay.Scenario, out replayOutput) {
	name := sc.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Scenario: %s\n", name)
	fmt.Fprintf(w, "  Frames: %d routed, %d dropped, %d malformed (of %d) over %s\n",
		out.Result.Routed, out.Result.Dropped, out.Result.Malformed, out.Result.Frames, out.Result.Elapsed)
	fmt.Fprintln(w)

	tb := out.Toolbar
	if tb.Empty() {
		fmt.Fprintln(w, "Toolbar: empty")
	} else {
		fmt.Fprintf(w, "Toolbar (badge %d):\n", tb.Badge)
		for _, item := range tb.Items {
			fmt.Fprintf(w, "  %-12s %d\n", item.Label, item.Count)
		}
		for _, p := range tb.Progress {
			if p.Percentage != nil {
				fmt.Fprintf(w, "  progress     %s (%d%%)\n", p.Message, *p.Percentage)
			} else {
				fmt.Fprintf(w, "  progress     %s\n", p.Message)
			}
		}
	}

	c := tb.Counts
	fmt.Fprintf(w, "Store: %d cards, %d notifications, %d highlights, %d carousel items, %d panel competitors\n",
		c.Cards, c.Notifications, c.Highlights, c.CarouselItems, c.Competitors)
	for _, title := range out.Graphs {
		fmt.Fprintf(w, "Graph: %s\n", title)
	}
}
