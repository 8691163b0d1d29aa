// Command plan runs the planner once over a snapshot file and prints the
// turn report as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/towerline/internal/bot"
	"github.com/freeeve/towerline/pkg/grid"
)

func main() {
	in := flag.String("snapshot", "-", "snapshot JSON file (- for stdin)")
	preset := flag.String("preset", "standard", "tuning preset (standard, classic)")
	tuningPath := flag.String("tuning", "", "YAML tuning file")
	verbose := flag.Bool("v", false, "log each build at debug level")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(*in, *preset, *tuningPath, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		os.Exit(1)
	}
}

func run(in, preset, tuningPath string, out io.Writer) error {
	tuning, err := bot.ResolveTuning(preset, tuningPath)
	if err != nil {
		return err
	}

	var data []byte
	if in == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		return err
	}

	snap, err := grid.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	report, err := bot.NewPlanner(tuning).DecideTurn(&bot.TurnContext{
		MatchID: "local",
		Turn:    snap.Turn,
		Team:    snap.Team,
		Money:   snap.Money,
		Grid:    snap.Grid,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
