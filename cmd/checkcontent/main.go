// Command checkcontent validates adversary tier and arena files without
// running a duel.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cory-johannsen/duelpanto/internal/game/npc"
	"github.com/cory-johannsen/duelpanto/internal/game/world"
)

func main() {
	tiersFile := flag.String("tiers", "content/tiers.yaml", "path to the tier YAML file")
	arenaFile := flag.String("arena", "content/arena.yaml", "path to the arena YAML file")
	flag.Parse()

	start := time.Now()
	if err := check(os.Stdout, *tiersFile, *arenaFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("content valid in %s\n", time.Since(start).Round(time.Millisecond))
}

// check loads both files and writes a one-line summary per tier and arena.
func check(out io.Writer, tiersFile, arenaFile string) error {
	tiers, err := npc.LoadTiersFromFile(tiersFile)
	if err != nil {
		return err
	}
	for i, t := range tiers {
		fmt.Fprintf(out, "level %d: %s (%s) health=%d mode=%s fov=%g turn=%g\n",
			i+1, t.ID, t.Name, t.MaxHealth, t.Mode(), t.FieldOfView, t.TurnRate)
	}

	arena, err := world.LoadArenaFromFile(arenaFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "arena %s: %d walls, player at %v, adversary at %v\n",
		arena.ID, len(arena.Walls), arena.PlayerSpawn.Position, arena.AdversarySpawn.Position)
	return nil
}
