// debug-resolve replays one resolution and prints the verdict plus the
// confirmation trajectory, for eyeballing tuning changes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/MJE43/dispatch-resolve-go/internal/engine"
	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
	"github.com/MJE43/dispatch-resolve-go/internal/sim"
)

func main() {
	serverSeed := flag.String("server", "debug-server-seed", "server seed")
	clientSeed := flag.String("client", "debug-client-seed", "client seed")
	nonce := flag.Uint64("nonce", 1, "nonce")
	flag.Parse()

	agentStats := resolve.StatVector{25, 40, 10, 55, 30}
	requirement := resolve.StatVector{50, 50, 50, 50, 50}

	seeds := engine.Seeds{Server: *serverSeed, Client: *clientSeed}
	src := engine.NewByteGenerator(seeds, *nonce, 0)

	verdict, err := resolve.Resolve(agentStats, requirement, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("nonce %d: success=%t coverage=%.2f%% sector=%s distance=%.4f\n",
		*nonce, verdict.Success, verdict.CoveragePercent, resolve.AxisName(verdict.Sector), verdict.Distance)
	for i, c := range verdict.Coverage {
		fmt.Printf("  %-10s agent=%6.1f required=%6.1f coverage=%.2f\n",
			resolve.AxisName(i), agentStats[i], requirement[i], c)
	}

	opts := sim.DefaultOptions()
	opts.Logger = log.New(os.Stderr, "[SIM] ", 0)

	conf, err := sim.Begin(verdict, agentStats, requirement, src, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "begin confirmation: %v\n", err)
		os.Exit(1)
	}

	const dt = 1.0 / 60
	elapsed := 0.0
	for step := 0; !conf.Done() && step < 100000; step++ {
		phase := conf.Step(dt)
		elapsed += dt
		if step%15 == 0 || phase >= sim.PhaseSettled {
			pos := conf.Position()
			fmt.Printf("t=%5.2f phase=%-9s pos=(%+.4f, %+.4f)\n", elapsed, phase, pos[0], pos[1])
		}
	}

	outcome, ok := conf.Result()
	if !ok {
		fmt.Fprintln(os.Stderr, "confirmation did not terminate")
		os.Exit(1)
	}

	fmt.Printf("final=(%+.4f, %+.4f) contained=%t bounces=%d forced=%t elapsed=%.2fs\n",
		outcome.Final[0], outcome.Final[1], outcome.Contained, outcome.Bounces, outcome.Forced, outcome.Elapsed)
}
