// Command sim plays a Dominion game between bots and prints the log and
// final standings.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"dominion/internal/app"
	"dominion/internal/bot"
	"dominion/internal/catalog"
	"dominion/internal/logging"

	"github.com/spf13/cobra"
)

type options struct {
	seed        int64
	preset      string
	players     int
	strategies  []string
	catalogPath string
	logLevel    string
	maxSteps    int
	quiet       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulate a Dominion game between bots",
		Long: `sim seats bots around a table, plays one game to the end and prints
the game log followed by the final standings. Strategies are assigned to
seats in order and repeat when fewer strategies than players are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.Int64Var(&opts.seed, "seed", 0, "rng seed (0 picks one from the clock)")
	flags.StringVar(&opts.preset, "preset", "first_game", "kingdom preset")
	flags.IntVarP(&opts.players, "players", "n", 2, "number of bots (2-4)")
	flags.StringSliceVarP(&opts.strategies, "strategy", "s", []string{bot.StrategyBigMoney, bot.StrategySmithyBigMoney}, "bot strategies by seat")
	flags.StringVar(&opts.catalogPath, "catalog", "", "card catalog file (defaults to the built-in base set)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "engine log level: debug, info, warn, error")
	flags.IntVar(&opts.maxSteps, "max-steps", bot.DefaultMaxSteps, "give up after this many actions")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "print only the standings")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(opts.strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}

	cat, err := loadCatalog(opts.catalogPath)
	if err != nil {
		return err
	}
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger := logging.New(os.Stderr, logging.ParseLevel(opts.logLevel))
	svc := app.NewService(cat, rand.New(rand.NewSource(seed)), logger)
	kingdom, err := svc.KingdomFor(opts.preset)
	if err != nil {
		return err
	}

	agents := make(map[string]*bot.Agent, opts.players)
	seats := make([]string, 0, opts.players)
	for i := 0; i < opts.players; i++ {
		strategy := opts.strategies[i%len(opts.strategies)]
		brain, err := bot.NewBrain(strategy)
		if err != nil {
			return err
		}
		id := fmt.Sprintf("p%d-%s", i+1, strategy)
		agents[id] = &bot.Agent{ID: id, Name: id, Strategy: brain}
		seats = append(seats, id)
	}

	g, events, err := svc.StartGame(ctx, fmt.Sprintf("sim-%d", seed), seats, kingdom)
	if err != nil {
		return err
	}
	defer g.Close()

	fmt.Fprintf(out, "seed %d, kingdom %v\n", seed, kingdom)
	p := printer{out: out, quiet: opts.quiet, game: g}
	p.print(events)
	if err := bot.RunGame(ctx, svc, g, agents, opts.maxSteps, p.print); err != nil {
		return err
	}

	fmt.Fprintf(out, "\ngame over after turn %d\n", g.Match.TurnNumber)
	for _, s := range g.Standings {
		fmt.Fprintf(out, "%d. %-24s %3d VP\n", s.Rank, s.Player, s.Score)
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

type printer struct {
	out   io.Writer
	quiet bool
	game  *app.Game
	turn  int
}

func (p *printer) print(events []app.Event) {
	if p.quiet {
		return
	}
	for _, ev := range events {
		if ev.Kind != app.EventLog {
			continue
		}
		if m := p.game.Match; m.TurnNumber != p.turn {
			p.turn = m.TurnNumber
			fmt.Fprintf(p.out, "-- turn %d --\n", p.turn)
		}
		entry := ev.Payload.(app.LogPayload).Entry
		line := fmt.Sprintf("%-10s %s", entry.Action, entry.Player)
		if entry.CardKey != "" {
			line += " " + entry.CardKey
		}
		if entry.Amount != 0 {
			line += fmt.Sprintf(" %+d", entry.Amount)
		}
		if entry.Text != "" {
			line += " (" + entry.Text + ")"
		}
		fmt.Fprintln(p.out, line)
	}
}
