package drone

import "sync"

// JoyCommand is one recorded SendJoy invocation.
type JoyCommand struct {
	Lateral      int
	Longitudinal int
	Yaw          int
	Vertical     int
}

// Mock is an in-memory Driver for tests. It records every command in order
// and can replay telemetry events into the registered callback.
type Mock struct {
	mu       sync.Mutex
	calls    []string
	joys     []JoyCommand
	callback Callback
}

// NewMock returns an empty mock driver.
func NewMock() *Mock {
	return &Mock{}
}

// SetCallback registers the telemetry callback, mirroring how a real
// driver is handed the controller's event sink at construction.
func (m *Mock) SetCallback(cb Callback) {
	m.mu.Lock()
	m.callback = cb
	m.mu.Unlock()
}

// Emit delivers a telemetry event as if it came from the hardware thread.
func (m *Mock) Emit(ev Event) {
	m.mu.Lock()
	cb := m.callback
	m.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

func (m *Mock) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *Mock) Connect()   { m.record("connect") }
func (m *Mock) TakeOff()   { m.record("takeoff") }
func (m *Mock) Still()     { m.record("still") }
func (m *Mock) Emergency() { m.record("emergency") }
func (m *Mock) Die()       { m.record("die") }

func (m *Mock) SendJoy(lateral, longitudinal, yaw, vertical int) {
	m.mu.Lock()
	m.calls = append(m.calls, "send_joy")
	m.joys = append(m.joys, JoyCommand{lateral, longitudinal, yaw, vertical})
	m.mu.Unlock()
}

// Calls returns the commands issued so far, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Joys returns the recorded actuator commands, in order.
func (m *Mock) Joys() []JoyCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]JoyCommand, len(m.joys))
	copy(out, m.joys)
	return out
}

// Count returns how many times the named command was issued.
func (m *Mock) Count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

// Clear drops all recorded commands.
func (m *Mock) Clear() {
	m.mu.Lock()
	m.calls = nil
	m.joys = nil
	m.mu.Unlock()
}
