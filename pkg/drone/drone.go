// Package drone defines the boundary to the drone hardware: the command
// set the controller may issue and the telemetry events the hardware layer
// delivers back. The physical Bluetooth driver lives outside this module;
// this package carries the contract plus a websocket simulator driver and
// a mock for tests.
package drone

// ConnState is the hardware link state as last reported by the driver.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventKind tags a telemetry event delivered by the driver.
type EventKind int

const (
	// EventMessage carries a free-text status line from the drone.
	EventMessage EventKind = iota
	// EventBattery carries the battery report.
	EventBattery
	// EventTelemetry carries a full configuration/telemetry snapshot.
	EventTelemetry
	// EventSpeed carries the drone's reported speed.
	EventSpeed
	// EventState carries a connection-state change.
	EventState
)

// Event is one telemetry callback payload. Only the field matching Kind is
// meaningful. Callbacks are invoked from a goroutine owned by the hardware
// layer; handlers must do their own locking.
type Event struct {
	Kind    EventKind
	Message string
	Battery string
	Speed   int
	Config  map[string]string
	State   ConnState
}

// Callback receives telemetry events. It may be called from any goroutine.
type Callback func(Event)

// Driver is the outbound command contract. Every command is fire-and-forget
// from the caller's perspective: implementations must not block the control
// loop on hardware round-trips.
type Driver interface {
	// Connect asks the driver to (re)establish the hardware link. Safe to
	// call repeatedly; an in-progress attempt absorbs further calls.
	Connect()
	// TakeOff starts the lift-off sequence.
	TakeOff()
	// Still brakes into a stationary hover. This is the halt action used by
	// every failsafe path.
	Still()
	// Emergency kills the motors immediately.
	Emergency()
	// Die disconnects and releases the hardware link.
	Die()
	// SendJoy sends a four-axis actuator command. Components are expected
	// in [-100, 100].
	SendJoy(lateral, longitudinal, yaw, vertical int)
}
