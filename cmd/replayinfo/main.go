// Command replayinfo prints a summary of a recorded duel series bundle.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cory-johannsen/duelpanto/internal/replay"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <bundle dir or manifest.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := summarize(os.Stdout, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// summarize loads the bundle at path and writes one line per encounter,
// then the final result and the last recorded frame.
func summarize(out io.Writer, path string) error {
	b, err := replay.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run %s recorded %s: %d events, %d frames every %dms\n",
		b.Manifest.RunID, b.Manifest.CreatedAt, len(b.Events), len(b.Frames), b.Manifest.FrameIntervalMs)

	for _, e := range b.Events {
		switch e.Type {
		case replay.EventEncounterEnded:
			var p replay.EncounterEndedPayload
			if err := e.Decode(&p); err != nil {
				return err
			}
			winner := "adversary"
			if p.PlayerWon {
				winner = "player"
			}
			fmt.Fprintf(out, "level %d: %s won against %s in %dms, hp %d/%d, delta %d\n",
				p.Level+1, winner, p.TierID, p.ElapsedMs, p.PlayerHealth, p.AdversaryHealth, p.LevelScoreDelta)
		case replay.EventGameOver:
			var p replay.GameOverPayload
			if err := e.Decode(&p); err != nil {
				return err
			}
			fmt.Fprintf(out, "game over: score %d (%d-%d) trophy=%t\n",
				p.GameScore, p.PlayerWins, p.AdversaryWins, p.Trophy)
		}
	}

	if last, ok := b.Last(); ok {
		fmt.Fprintf(out, "last frame: tick %d at %s", last.Tick, last.At)
		for _, body := range last.Bodies {
			fmt.Fprintf(out, ", %s hp=%d at (%.1f, %.1f)", body.Kind, body.Health, body.X, body.Z)
		}
		fmt.Fprintln(out)
	}
	return nil
}
