package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AIRF0X788/Op-V2/internal/bot"
	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/config"
	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/game/events/subscribers"
)

// simulate plays a bot-only match on a virtual clock, so a whole game
// takes seconds instead of minutes, and prints the final standings.
func main() {
	configPath := flag.String("config", "", "Path to config file")
	seed := flag.Int64("seed", 42, "Match seed (map, placement and bot decisions)")
	bots := flag.Int("bots", -1, "Number of bots (-1 to use game.rules.min_participants)")
	difficulty := flag.String("difficulty", "", "Bot difficulty (empty to use game.rules.bot_difficulty)")
	maxTicks := flag.Int("max-ticks", 20000, "Stop after this many ticks if nobody has won")
	verbose := flag.Bool("verbose", false, "Log every room event")
	flag.Parse()

	setupLogging(*verbose)

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	rules := game.RulesFromConfig(config.Get())
	if *bots > 0 {
		rules.MinParticipants = *bots
		if rules.MaxPlayers < *bots {
			rules.MaxPlayers = *bots
		}
	}
	if *difficulty != "" {
		if !bot.IsDifficulty(*difficulty) {
			log.Fatal().Str("difficulty", *difficulty).Msg("Unknown bot difficulty")
		}
		rules.BotDifficulty = *difficulty
	}

	clock := time.Unix(0, 0)
	bus := events.NewEventBus()
	if *verbose {
		bus.Subscribe(subscribers.NewLoggerSubscriber("simulate", log.Logger, zerolog.DebugLevel))
	}
	tally := make(map[string]int)
	bus.SubscribeFunc(events.AllEvents, func(e events.Event) { tally[e.Type()]++ })
	var winner string
	bus.SubscribeFunc(events.TypeGameEnded, func(e events.Event) {
		if ended, ok := e.(*events.GameEndedEvent); ok {
			winner = ended.Winner.Name
		}
	})
	room := game.NewRoom(game.RoomOptions{
		Code:       "SIM000",
		Rules:      rules,
		Logger:     log.Logger,
		Bus:        bus,
		Seed:       *seed,
		BotFactory: bot.NewFactory(log.Logger),
		Clock:      func() time.Time { return clock },
	})
	if err := room.StartWithBots(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start match")
	}

	log.Info().
		Int64("seed", *seed).
		Int("bots", rules.MinParticipants).
		Str("difficulty", rules.BotDifficulty).
		Int("width", rules.MapWidth).
		Int("height", rules.MapHeight).
		Msg("Simulating match")

	start := time.Now()
	finished := false
	for tick := 0; tick < *maxTicks && !finished; tick++ {
		clock = clock.Add(rules.TickInterval)
		room.Step()
		select {
		case <-room.Done():
			finished = true
		default:
		}
	}

	gameTime := time.Duration(room.Tick()) * rules.TickInterval
	log.Info().
		Bool("finished", finished).
		Int("ticks", room.Tick()).
		Str("game_time", common.FormatDuration(gameTime)).
		Dur("wall_time", time.Since(start)).
		Str("winner", winner).
		Int("combats", tally[events.TypeCombatResolved]).
		Int("eliminations", tally[events.TypeActorEliminated]).
		Int("alliances", tally[events.TypeAllianceFormed]).
		Msg("Simulation complete")

	printStandings(room.Standings(), landCells(room.Snapshot().Map))
}

func landCells(m events.MapSnapshot) int {
	return strings.Count(m.Terrain, "L")
}

func printStandings(rows []events.Standing, land int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tname\tcells\tland %\ttroops\tgold\tincome\tconquests\tkills\t")
	for i, s := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.1f\t%.0f\t%.0f\t%v\t%d\t%d\t\n",
			i+1, s.Name, s.Cells, common.Percent(s.Cells, land),
			s.Troops, s.Gold, common.RoundTo(s.Income, 1), s.Conquests, s.Kills)
	}
	_ = w.Flush()
}

func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}
