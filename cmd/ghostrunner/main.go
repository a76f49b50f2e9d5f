// ghostrunner runs a headless simulated race in the terminal. Handy for
// tuning pacing constants without standing up the API or any backends.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gridrun/race-api/internal/notify"
	"github.com/gridrun/race-api/internal/race"
)

type consoleSink struct {
	lang notify.Language
}

func (c consoleSink) Notify(event race.Event, vars map[string]string) {
	fmt.Printf("  >> %s\n", notify.Render(c.lang, event, vars))
}

func main() {
	ticks := flag.Int("ticks", 600, "number of simulation ticks to run")
	dt := flag.Float64("dt", 0.1, "seconds per tick")
	speed := flag.Float64("speed", 4.2, "user running speed in m/s")
	lang := flag.String("lang", "EN", "voice line language (EN or KR)")
	every := flag.Int("every", 50, "print a status line every N ticks")
	flag.Parse()

	if *ticks <= 0 || *dt <= 0 {
		fmt.Fprintln(os.Stderr, "ticks and dt must be positive")
		os.Exit(1)
	}

	cfg := race.DefaultSessionConfig()
	session := race.NewSession("local", "console-runner", cfg)
	session.SetSink(consoleSink{lang: notify.Language(*lang)})

	session.Start()
	session.SetUserSpeed(*speed)

	fmt.Printf("ghost race: %d ticks at %.0fms, user %.1f m/s\n",
		*ticks, *dt*1000, *speed)

	start := time.Now()
	for i := 1; i <= *ticks; i++ {
		// Hold the commanded speed against stamina decay so the run
		// reflects the flag, not the decay curve.
		session.SetUserSpeed(*speed)
		session.Tick(*dt)

		if i%*every == 0 {
			snap := session.Snapshot()
			fmt.Printf("t=%5.1fs  user %.2f m/s  ghost %.2f m/s  gap %+7.1fm  dist %6.1fm  zone=%v\n",
				float64(i)**dt, snap.UserSpeed, snap.GhostSpeed, snap.RivalGap, snap.Distance, snap.InZone)
		}
	}

	session.Stop()
	snap := session.Snapshot()
	fmt.Printf("\nfinished in %s (simulated %.1fs)\n", time.Since(start).Round(time.Millisecond), float64(*ticks)**dt)
	fmt.Printf("distance %.1fm, final gap %+.1fm, path points %d, speed flags %d\n",
		snap.Distance, snap.RivalGap, snap.PathLength, snap.SpeedFlags)
}
