// Package control is the heart of the flight controller: the shared state
// written by the pose listeners and the telemetry callback, the decision
// engine that turns pose error into actuator commands, and the controller
// that runs the wake/decide cycle on a fixed cadence.
package control

import (
	"context"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/skymote/go-minipilot/internal/config"
	"github.com/skymote/go-minipilot/pkg/drone"
	"github.com/skymote/go-minipilot/pkg/feed"
	"github.com/skymote/go-minipilot/pkg/pose"
)

// Controller owns the shared state and wires the pose feeds, the drone
// driver and the decision engine together.
type Controller struct {
	cfg    config.Config
	clk    clock.Clock
	logger *slog.Logger

	state  *State
	engine *Engine
	drv    drone.Driver

	tracking *feed.Server
	target   *feed.Server

	session uuid.UUID
}

// New builds a controller. Pass a nil clock for wall time.
func New(cfg config.Config, drv drone.Driver, clk clock.Clock, logger *slog.Logger) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	session := uuid.New()
	logger = logger.With("session", session.String())

	state := NewState(clk)
	engine := NewEngine(cfg, drv, state, clk, logger.With("component", "engine"))

	c := &Controller{
		cfg:     cfg,
		clk:     clk,
		logger:  logger,
		state:   state,
		engine:  engine,
		drv:     drv,
		session: session,
	}

	// Decode failures on either feed map to an immediate halt; the feeds
	// still acknowledge every request.
	c.tracking = feed.NewTracking(cfg.TrackingAddr, c.handleTracking, engine.Halt, logger)
	c.target = feed.NewTarget(cfg.TargetAddr, c.handleTarget, engine.Halt, logger)

	return c
}

// HandleEvent is the drone driver's telemetry callback. Safe to call from
// any goroutine.
func (c *Controller) HandleEvent(ev drone.Event) {
	c.state.ApplyEvent(ev)
}

// State exposes the shared state for in-process collaborators and tests.
func (c *Controller) State() *State {
	return c.state
}

func (c *Controller) handleTracking(p pose.Pose, reset bool) {
	if reset {
		c.logger.Info("failure latch cleared by tracking feed")
	}
	c.state.SetTracked(p, reset)
}

func (c *Controller) handleTarget(p pose.Pose) {
	c.state.SetTarget(p)
}

// Run starts both feed endpoints and drives the decision loop until ctx is
// cancelled or a feed fails. One decision step runs at least once per
// LoopPeriod and promptly after new data; a burst of updates within one
// period yields a single step. On every exit path the drone gets an
// emergency stop followed by disconnect.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("controller starting",
		"tracking_addr", c.cfg.TrackingAddr,
		"target_addr", c.cfg.TargetAddr,
	)

	errs := make(chan error, 2)
	go func() {
		if err := c.tracking.Listen(); err != nil {
			errs <- err
		}
	}()
	go func() {
		if err := c.target.Listen(); err != nil {
			errs <- err
		}
	}()

	defer func() {
		c.logger.Warn("emergency stop")
		c.drv.Emergency()
		c.drv.Die()
		if err := c.tracking.Shutdown(); err != nil {
			c.logger.Error("tracking feed shutdown", "error", err)
		}
		if err := c.target.Shutdown(); err != nil {
			c.logger.Error("target feed shutdown", "error", err)
		}
	}()

	c.drv.Connect()

	timer := c.clk.Timer(c.cfg.LoopPeriod)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			c.logger.Error("feed failed", "error", err)
			return err
		case <-c.state.Wake():
		case <-timer.C:
		}

		c.engine.Step()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.cfg.LoopPeriod)
	}
}
