package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"uartlog-go/internal/platform"
	"uartlog-go/services/config"
	"uartlog-go/services/relay"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	// One OS thread: tasks interleave only at blocking points, as on the MCU.
	runtime.GOMAXPROCS(1)

	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal("config", err)
	}
	if err := config.Validate(cfg); err != nil {
		fatal("config", err)
	}

	p, err := platform.Open(cfg)
	if err != nil {
		fatal("platform", err)
	}
	if p.Close != nil {
		defer p.Close()
	}

	r := relay.New(relay.Deps{
		Config: cfg,
		Serial: p.Serial,
		Radio:  p.Radio,
		Listen: p.Listen,
	})
	r.Start(context.Background())
	r.Wait()
}

func fatal(stage string, err error) {
	println("[main]", stage, "failed:", err.Error())
	os.Exit(1)
}
