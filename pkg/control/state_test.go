package control

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/skymote/go-minipilot/pkg/drone"
	"github.com/skymote/go-minipilot/pkg/pose"
)

func TestNextConnState(t *testing.T) {
	cases := []struct {
		name string
		cur  drone.ConnState
		ev   drone.ConnState
		want drone.ConnState
	}{
		{"disconnected gets connected", drone.Disconnected, drone.Connected, drone.Connected},
		{"disconnected starts connecting", drone.Disconnected, drone.Connecting, drone.Connecting},
		{"connecting completes", drone.Connecting, drone.Connected, drone.Connected},
		{"connecting can drop", drone.Connecting, drone.Disconnected, drone.Disconnected},
		{"connected can drop", drone.Connected, drone.Disconnected, drone.Disconnected},
		{"connected never re-enters connecting", drone.Connected, drone.Connecting, drone.Disconnected},
		{"disconnected stays down", drone.Disconnected, drone.Disconnected, drone.Disconnected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextConnState(tc.cur, tc.ev); got != tc.want {
				t.Errorf("nextConnState(%v, %v) = %v, want %v", tc.cur, tc.ev, got, tc.want)
			}
		})
	}
}

func TestApplyEvent_RefreshesTelemetryTimestamp(t *testing.T) {
	clk := clock.NewMock()
	st := NewState(clk)

	clk.Add(10 * time.Second)
	st.ApplyEvent(drone.Event{Kind: drone.EventSpeed, Speed: 42})

	s := st.Snapshot()
	if s.Speed != 42 {
		t.Errorf("speed = %d, want 42", s.Speed)
	}
	if !s.LastTelemetry.Equal(clk.Now()) {
		t.Errorf("lastTelemetry = %v, want %v", s.LastTelemetry, clk.Now())
	}
}

func TestSetTracked_ResetClearsFailure(t *testing.T) {
	clk := clock.NewMock()
	st := NewState(clk)

	st.Fail()
	if !st.Snapshot().Failed {
		t.Fatal("Fail did not latch")
	}

	st.SetTracked(pose.Pose{Rotation: pose.IdleOrientation}, false)
	if !st.Snapshot().Failed {
		t.Error("non-reset update cleared the failure latch")
	}

	st.SetTracked(pose.Pose{Rotation: pose.IdleOrientation}, true)
	if st.Snapshot().Failed {
		t.Error("reset update did not clear the failure latch")
	}
}

func TestWake_CoalescesBursts(t *testing.T) {
	st := NewState(clock.NewMock())
	p := pose.Pose{Rotation: pose.IdleOrientation}

	st.SetTracked(p, false)
	st.SetTarget(p)
	st.ApplyEvent(drone.Event{Kind: drone.EventBattery, Battery: "80"})

	select {
	case <-st.Wake():
	default:
		t.Fatal("no wake pending after updates")
	}
	select {
	case <-st.Wake():
		t.Fatal("burst produced more than one pending wake")
	default:
	}

	// A later update signals again.
	st.SetTarget(p)
	select {
	case <-st.Wake():
	default:
		t.Fatal("no wake pending after fresh update")
	}
}

func TestTimestampsNeverMoveBackwards(t *testing.T) {
	clk := clock.NewMock()
	st := NewState(clk)

	clk.Add(5 * time.Second)
	now := clk.Now()
	st.MarkLifted(now)
	st.MarkDispatched(now)

	st.MarkLifted(now.Add(-time.Second))
	st.MarkDispatched(now.Add(-time.Second))

	s := st.Snapshot()
	if !s.LiftedAt.Equal(now) {
		t.Errorf("liftedAt moved backwards: %v", s.LiftedAt)
	}
	if !s.LastDispatch.Equal(now) {
		t.Errorf("lastDispatch moved backwards: %v", s.LastDispatch)
	}
}

func TestSnapshot_CopiesConfig(t *testing.T) {
	st := NewState(clock.NewMock())
	st.ApplyEvent(drone.Event{Kind: drone.EventTelemetry, Config: map[string]string{"fw": "1.2"}})

	s := st.Snapshot()
	s.Config["fw"] = "tampered"

	if got := st.Snapshot().Config["fw"]; got != "1.2" {
		t.Errorf("snapshot aliases internal config map: fw = %q", got)
	}
}

func TestNewState_StartsAtIdleOrientation(t *testing.T) {
	st := NewState(clock.NewMock())
	s := st.Snapshot()

	if s.Tracked.Rotation != pose.IdleOrientation {
		t.Errorf("tracked rotation = %+v", s.Tracked.Rotation)
	}
	if s.Target.Rotation != pose.IdleOrientation {
		t.Errorf("target rotation = %+v", s.Target.Rotation)
	}
	// Identical idle orientations must read as zero yaw error.
	if got := pose.AngularDifference(s.Tracked.Rotation, s.Target.Rotation); got != 0 {
		t.Errorf("idle yaw error = %v, want 0", got)
	}
}
