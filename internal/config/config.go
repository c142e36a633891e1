// Package config holds the controller's tuning constants and the small set
// of values that may be overridden from the environment.
package config

import (
	"os"
	"time"

	"github.com/skymote/go-minipilot/pkg/pid"
)

// Defaults for the environment-overridable values.
const (
	DefaultTrackingAddr = ":5555"
	DefaultTargetAddr   = ":5556"
	DefaultSimURL       = "ws://127.0.0.1:8765/drone"
)

// Config bundles every timeout, threshold and gain the controller uses.
// These are fixed constants at the system boundary; only the network
// addresses and the simulator URL are runtime configuration.
type Config struct {
	// Network
	TrackingAddr string // mocap feed request-reply endpoint
	TargetAddr   string // simulation feed request-reply endpoint
	SimURL       string // drone simulator websocket

	// Timing
	LoopPeriod       time.Duration // decision cadence; also the max wake wait
	DroneTimeout     time.Duration // halt when telemetry is older than this
	TrackingTimeout  time.Duration // halt when the mocap feed is older than this
	TargetTimeout    time.Duration // safe-descend when the target feed is older
	LiftDelay        time.Duration // min gap between takeoff attempts
	DispatchInterval time.Duration // min gap between actuator sends

	// Thresholds
	RotationHalt   float64 // rad; no translation while yaw error exceeds this
	RotationFailed float64 // rad; yaw error this large latches the failure flag
	GroundedSpeed  int     // reported speed below this means not airborne
	MaxSpeed       int     // command clamp, ± this value

	// Per-axis feedback gains
	Lateral      pid.Gains
	Longitudinal pid.Gains
	Vertical     pid.Gains
	Rotation     pid.Gains
}

// Default returns the flight-tested configuration.
func Default() Config {
	return Config{
		TrackingAddr: DefaultTrackingAddr,
		TargetAddr:   DefaultTargetAddr,
		SimURL:       DefaultSimURL,

		LoopPeriod:       50 * time.Millisecond,
		DroneTimeout:     3 * time.Second,
		TrackingTimeout:  500 * time.Millisecond,
		TargetTimeout:    time.Second,
		LiftDelay:        3 * time.Second,
		DispatchInterval: 300 * time.Millisecond,

		RotationHalt:   0.4,
		RotationFailed: 1.0,
		GroundedSpeed:  10,
		MaxSpeed:       100,

		Lateral:      pid.Gains{P: 100, I: 30, D: 10},
		Longitudinal: pid.Gains{P: 100, I: 30, D: 10},
		Vertical:     pid.Gains{P: 30, I: 10, D: 5},
		Rotation:     pid.Gains{P: 50, I: 2, D: 5},
	}
}

// FromEnv returns Default overlaid with MINIPILOT_* environment variables.
func FromEnv() Config {
	cfg := Default()
	cfg.TrackingAddr = envOr("MINIPILOT_TRACKING_ADDR", cfg.TrackingAddr)
	cfg.TargetAddr = envOr("MINIPILOT_TARGET_ADDR", cfg.TargetAddr)
	cfg.SimURL = envOr("MINIPILOT_SIM_URL", cfg.SimURL)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
