package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/logging"
	"github.com/claude/liftplan/internal/timer"
	"github.com/claude/liftplan/internal/training"
)

func main() {
	seconds := flag.Int("seconds", 0, "rest duration in seconds; overrides the phase")
	phase := flag.String("phase", "", "phase whose rest duration to use (highVolume, mediumVolume, lowVolume); defaults to today's phase")
	verbose := flag.Bool("v", false, "log timer state changes to stderr")
	flag.Parse()

	logCfg := config.LogConfig{Level: "warn", Format: "text"}
	if *verbose {
		logCfg.Level = "debug"
	}
	log, logCloser := logging.NewWithWriter(logCfg, os.Stderr)
	defer logCloser.Close()

	var rt *timer.RestTimer
	if *seconds > 0 {
		rt = timer.New(*seconds, timer.WithLogger(log))
	} else {
		p := training.Phase(*phase)
		if p == "" {
			p = training.PhaseFor(time.Now()).Phase
		}
		var err error
		rt, err = timer.ForPhase(p, timer.WithLogger(log))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usage: liftplan-rest [-seconds N | -phase highVolume|mediumVolume|lowVolume]\n")
			flag.PrintDefaults()
			os.Exit(1)
		}
		cfg, _ := training.Config(p)
		fmt.Printf("%s (%s)\n", cfg.Name, p)
	}
	defer rt.Close()

	done := make(chan struct{})
	rt.OnTick(func(s timer.Snapshot) {
		fmt.Printf("\rRest %s", s)
	})
	rt.OnExpired(func(timer.Snapshot) {
		fmt.Print("\a\nRest over\n")
		close(done)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("Rest %s", rt.Snapshot())
	rt.Start()

	select {
	case <-done:
	case sig := <-quit:
		fmt.Println()
		log.Info("rest cancelled", "signal", sig, "remaining", rt.Snapshot().Remaining)
	}
}
