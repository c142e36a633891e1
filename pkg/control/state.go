package control

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/skymote/go-minipilot/pkg/drone"
	"github.com/skymote/go-minipilot/pkg/pose"
)

// Snapshot is a consistent copy of the shared state, taken once per
// decision step.
type Snapshot struct {
	Tracked pose.Pose
	Target  pose.Pose

	Conn    drone.ConnState
	Message string
	Battery string
	Speed   int
	Config  map[string]string

	Failed bool

	LiftedAt      time.Time
	LastDispatch  time.Time
	LastTracking  time.Time
	LastTelemetry time.Time
	LastTarget    time.Time
}

// State owns every field shared between the listener goroutines, the
// telemetry callback and the decision engine. All access goes through one
// mutex; no producer reaches into a field directly.
type State struct {
	mu  sync.Mutex
	clk clock.Clock

	tracked pose.Pose
	target  pose.Pose

	conn    drone.ConnState
	message string
	battery string
	speed   int
	config  map[string]string

	failed bool

	liftedAt      time.Time
	lastDispatch  time.Time
	lastTracking  time.Time
	lastTelemetry time.Time
	lastTarget    time.Time

	// wake carries at most one pending "new data" notification; bursts of
	// updates within one loop period collapse into a single decision.
	wake chan struct{}
}

// NewState returns the startup state: zero translations, the idle
// orientation, and feed timestamps primed to now so the controller does
// not halt before the first sample can possibly arrive.
func NewState(clk clock.Clock) *State {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &State{
		clk:           clk,
		tracked:       pose.Pose{Rotation: pose.IdleOrientation},
		target:        pose.Pose{Rotation: pose.IdleOrientation},
		conn:          drone.Disconnected,
		lastTracking:  now,
		lastTelemetry: now,
		wake:          make(chan struct{}, 1),
	}
}

// Wake returns the coalesced new-data channel. The decision loop drains it
// with a timed receive.
func (s *State) Wake() <-chan struct{} {
	return s.wake
}

func (s *State) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// latest keeps timestamps monotonically non-decreasing even if the clock
// source is adjusted under us.
func latest(cur, t time.Time) time.Time {
	if t.After(cur) {
		return t
	}
	return cur
}

// SetTracked records a mocap pose update. reset clears the failure latch.
func (s *State) SetTracked(p pose.Pose, reset bool) {
	s.mu.Lock()
	s.tracked = p
	if reset {
		s.failed = false
	}
	s.lastTracking = latest(s.lastTracking, s.clk.Now())
	s.mu.Unlock()
	s.signal()
}

// SetTarget records a commanded target pose from the simulation feed.
func (s *State) SetTarget(p pose.Pose) {
	s.mu.Lock()
	s.target = p
	s.lastTarget = latest(s.lastTarget, s.clk.Now())
	s.mu.Unlock()
	s.signal()
}

// ApplyEvent folds one telemetry event into the state. Any event kind
// refreshes the hardware staleness timestamp.
func (s *State) ApplyEvent(ev drone.Event) {
	s.mu.Lock()
	switch ev.Kind {
	case drone.EventMessage:
		s.message = ev.Message
	case drone.EventBattery:
		s.battery = ev.Battery
	case drone.EventSpeed:
		s.speed = ev.Speed
	case drone.EventTelemetry:
		s.config = ev.Config
	case drone.EventState:
		s.conn = nextConnState(s.conn, ev.State)
	}
	s.lastTelemetry = latest(s.lastTelemetry, s.clk.Now())
	s.mu.Unlock()
	s.signal()
}

// nextConnState is the connection state machine. A connected event always
// yields Connected. A connecting event holds an in-progress Connecting but
// demotes a Connected link to Disconnected, since a fresh handshake means
// the old link is gone. Every other event grounds the state to
// Disconnected.
func nextConnState(cur, ev drone.ConnState) drone.ConnState {
	switch ev {
	case drone.Connected:
		return drone.Connected
	case drone.Connecting:
		if cur == drone.Connected {
			return drone.Disconnected
		}
		return drone.Connecting
	default:
		return drone.Disconnected
	}
}

// Fail latches the failure flag. Only a reset on the tracking feed clears
// it.
func (s *State) Fail() {
	s.mu.Lock()
	s.failed = true
	s.mu.Unlock()
}

// MarkLifted records a takeoff attempt for the lift debounce.
func (s *State) MarkLifted(t time.Time) {
	s.mu.Lock()
	s.liftedAt = latest(s.liftedAt, t)
	s.mu.Unlock()
}

// MarkDispatched records an actuator send for the dispatch throttle.
func (s *State) MarkDispatched(t time.Time) {
	s.mu.Lock()
	s.lastDispatch = latest(s.lastDispatch, t)
	s.mu.Unlock()
}

// Snapshot copies the state under the lock.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg map[string]string
	if s.config != nil {
		cfg = make(map[string]string, len(s.config))
		for k, v := range s.config {
			cfg[k] = v
		}
	}

	return Snapshot{
		Tracked:       s.tracked,
		Target:        s.target,
		Conn:          s.conn,
		Message:       s.message,
		Battery:       s.battery,
		Speed:         s.speed,
		Config:        cfg,
		Failed:        s.failed,
		LiftedAt:      s.liftedAt,
		LastDispatch:  s.lastDispatch,
		LastTracking:  s.lastTracking,
		LastTelemetry: s.lastTelemetry,
		LastTarget:    s.lastTarget,
	}
}
