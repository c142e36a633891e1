package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/skymote/go-minipilot/internal/config"
	"github.com/skymote/go-minipilot/internal/log"
	"github.com/skymote/go-minipilot/pkg/control"
	"github.com/skymote/go-minipilot/pkg/drone"
)

func main() {
	trackingAddr := flag.String("tracking", "", "tracking feed listen address (default from env/config)")
	targetAddr := flag.String("target", "", "target feed listen address (default from env/config)")
	simURL := flag.String("sim", "", "drone simulator websocket URL (default from env/config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		log.Init("debug")
	}
	logger := log.Component("minipilot")

	cfg := config.FromEnv()
	if *trackingAddr != "" {
		cfg.TrackingAddr = *trackingAddr
	}
	if *targetAddr != "" {
		cfg.TargetAddr = *targetAddr
	}
	if *simURL != "" {
		cfg.SimURL = *simURL
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The driver's callback feeds telemetry into the controller's shared
	// state; the controller is built right after, before any event can
	// arrive (events only flow once Run issues the first Connect).
	var ctrl *control.Controller
	drv := drone.NewSim(cfg.SimURL, func(ev drone.Event) {
		ctrl.HandleEvent(ev)
	}, log.Component("drone.sim"))

	ctrl = control.New(cfg, drv, nil, log.L())

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("controller exited", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
