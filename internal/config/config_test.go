package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LoopPeriod != 50*time.Millisecond {
		t.Errorf("LoopPeriod = %v", cfg.LoopPeriod)
	}
	if cfg.DroneTimeout != 3*time.Second {
		t.Errorf("DroneTimeout = %v", cfg.DroneTimeout)
	}
	if cfg.TrackingTimeout != 500*time.Millisecond {
		t.Errorf("TrackingTimeout = %v", cfg.TrackingTimeout)
	}
	if cfg.RotationHalt >= cfg.RotationFailed {
		t.Errorf("RotationHalt %v must be below RotationFailed %v",
			cfg.RotationHalt, cfg.RotationFailed)
	}
	if cfg.MaxSpeed != 100 {
		t.Errorf("MaxSpeed = %d", cfg.MaxSpeed)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MINIPILOT_TRACKING_ADDR", ":7777")
	t.Setenv("MINIPILOT_SIM_URL", "ws://sim.local/drone")

	cfg := FromEnv()
	if cfg.TrackingAddr != ":7777" {
		t.Errorf("TrackingAddr = %q", cfg.TrackingAddr)
	}
	if cfg.SimURL != "ws://sim.local/drone" {
		t.Errorf("SimURL = %q", cfg.SimURL)
	}
	// Untouched values keep their defaults.
	if cfg.TargetAddr != DefaultTargetAddr {
		t.Errorf("TargetAddr = %q", cfg.TargetAddr)
	}
}
