package control

import (
	"log/slog"
	"math"

	"github.com/benbjohnson/clock"

	"github.com/skymote/go-minipilot/internal/config"
	"github.com/skymote/go-minipilot/pkg/drone"
	"github.com/skymote/go-minipilot/pkg/pid"
	"github.com/skymote/go-minipilot/pkg/pose"
)

// Engine runs one decision step per control cycle: the connection state
// machine, the staleness failsafes, the takeoff debounce and the four-axis
// feedback computation.
type Engine struct {
	cfg    config.Config
	drv    drone.Driver
	state  *State
	clk    clock.Clock
	logger *slog.Logger

	lateral      *pid.PID
	longitudinal *pid.PID
	vertical     *pid.PID
	rotation     *pid.PID
}

// NewEngine wires the engine to the shared state and the drone driver.
func NewEngine(cfg config.Config, drv drone.Driver, state *State, clk clock.Clock, logger *slog.Logger) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:          cfg,
		drv:          drv,
		state:        state,
		clk:          clk,
		logger:       logger,
		lateral:      pid.New(cfg.Lateral, clk),
		longitudinal: pid.New(cfg.Longitudinal, clk),
		vertical:     pid.New(cfg.Vertical, clk),
		rotation:     pid.New(cfg.Rotation, clk),
	}
}

// Halt brakes the drone into a hover. It is the action behind every
// failsafe: staleness, decode errors, and the rotation failure latch.
func (e *Engine) Halt() {
	e.logger.Warn("halt")
	e.drv.Still()
}

// Step executes one decision cycle against the current state snapshot.
func (e *Engine) Step() {
	now := e.clk.Now()
	s := e.state.Snapshot()

	// A latched failure suppresses everything until an operator reset
	// arrives on the tracking feed.
	if s.Failed {
		return
	}

	if s.Conn == drone.Disconnected {
		e.drv.Connect()
	}

	// Loss of the hardware link or of tracking always grounds the vehicle.
	if now.Sub(s.LastTelemetry) > e.cfg.DroneTimeout {
		e.logger.Warn("telemetry stale", "age", now.Sub(s.LastTelemetry))
		e.Halt()
		return
	}
	if now.Sub(s.LastTracking) > e.cfg.TrackingTimeout {
		e.logger.Warn("tracking stale", "age", now.Sub(s.LastTracking))
		e.Halt()
		return
	}

	if s.Conn != drone.Connected {
		return
	}

	if s.Speed < e.cfg.GroundedSpeed {
		// Debounced: each attempt is recorded so repeated low-speed
		// readings within LiftDelay issue at most one takeoff.
		if now.Sub(s.LiftedAt) > e.cfg.LiftDelay {
			e.logger.Info("takeoff")
			e.drv.TakeOff()
			e.state.MarkLifted(now)
		}
		return
	}

	// Airborne. The target feed counts as active only while fresh;
	// otherwise descend slowly in place.
	if now.Sub(s.LastTarget) > e.cfg.TargetTimeout {
		e.drv.SendJoy(safeDescent.Lateral, safeDescent.Longitudinal, safeDescent.Yaw, safeDescent.Vertical)
		return
	}

	cmd, ok := e.compute(s)
	if !ok {
		return
	}

	// Actuation rate is decoupled from decision rate.
	if now.Sub(s.LastDispatch) >= e.cfg.DispatchInterval {
		e.logger.Debug("dispatch",
			"lateral", cmd.Lateral,
			"longitudinal", cmd.Longitudinal,
			"yaw", cmd.Yaw,
			"vertical", cmd.Vertical,
		)
		e.drv.SendJoy(cmd.Lateral, cmd.Longitudinal, cmd.Yaw, cmd.Vertical)
		e.state.MarkDispatched(now)
	}
}

// compute turns the pose error into a clamped four-axis command. ok is
// false when the yaw error latched the failure flag instead.
func (e *Engine) compute(s Snapshot) (Command, bool) {
	yawErr := pose.AngularDifference(s.Tracked.Rotation, s.Target.Rotation)
	rot := e.rotation.Update(-yawErr)

	// A yaw error this large means rotational authority is gone; latch the
	// failure and stay grounded until an operator reset.
	if math.Abs(yawErr) >= e.cfg.RotationFailed {
		e.logger.Error("yaw error beyond recovery", "yaw_error", yawErr)
		e.state.Fail()
		e.Halt()
		return Command{}, false
	}

	// The vehicle must face the target before translating.
	var lat, lon, vert float64
	if math.Abs(yawErr) < e.cfg.RotationHalt {
		lat = signedSqrt(e.lateral.Update(-(s.Tracked.Translation.X - s.Target.Translation.X)))
		lon = signedSqrt(e.longitudinal.Update(-(s.Tracked.Translation.Z - s.Target.Translation.Z)))
		vert = e.vertical.Update(-(s.Tracked.Translation.Y - s.Target.Translation.Y))
	}

	lim := float64(e.cfg.MaxSpeed)
	return Command{
		Lateral:      int(clamp(lat, -lim, lim)),
		Longitudinal: int(clamp(lon, -lim, lim)),
		Yaw:          int(clamp(rot, -lim, lim)),
		Vertical:     int(clamp(vert, -lim, lim)),
	}, true
}
