// cmd/simulate/main.go plays AI-only games and prints how each personality fared.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jason-s-yu/rachel/internal/ai"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pterm/pterm"
)

func main() {
	games := flag.Int("games", 200, "number of games to play")
	seatList := flag.String("seats", "aggressive,conservative,balanced,chaotic", "comma separated personalities, one per seat")
	handSize := flag.Int("hand", 7, "cards dealt per player")
	seed := flag.Int64("seed", 0, "base seed; zero picks one from the clock")
	flag.Parse()

	seats, err := parseSeats(*seatList)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	bar, _ := pterm.DefaultProgressbar.WithTotal(*games).WithTitle("Simulating").Start()
	start := time.Now()
	stats, avgTurns, err := simulate(seats, *games, *handSize, *seed, func() { bar.Increment() })
	bar.Stop()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	data := pterm.TableData{{"Personality", "Games", "Wins", "Win %", "Last", "Avg place"}}
	for _, s := range stats {
		data = append(data, []string{
			pterm.LightCyan(string(s.Type)),
			fmt.Sprint(s.Games),
			fmt.Sprint(s.Wins),
			fmt.Sprintf("%.1f", 100*float64(s.Wins)/float64(max(s.Games, 1))),
			fmt.Sprint(s.Losses),
			fmt.Sprintf("%.2f", s.AvgPlace()),
		})
	}
	pterm.DefaultSection.Println("Results")
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Info.Printfln("%d games, %.1f turns per game, seed %d, %s", *games, avgTurns, *seed, time.Since(start).Round(time.Millisecond))
}

func parseSeats(s string) ([]ai.Type, error) {
	var seats []ai.Type
	for _, raw := range strings.Split(s, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, err := ai.ParseType(raw)
		if err != nil {
			return nil, err
		}
		seats = append(seats, t)
	}
	if len(seats) < 2 || len(seats) > 8 {
		return nil, fmt.Errorf("need between 2 and 8 seats, got %d", len(seats))
	}
	return seats, nil
}
