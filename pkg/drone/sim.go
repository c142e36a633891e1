package drone

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	simHandshakeTimeout = 5 * time.Second
	simWriteTimeout     = time.Second
)

// simMessage is the JSON envelope spoken on the simulator link, both ways.
type simMessage struct {
	Type         string            `json:"type"`
	Message      string            `json:"message,omitempty"`
	Battery      string            `json:"battery,omitempty"`
	Speed        int               `json:"speed,omitempty"`
	Config       map[string]string `json:"config,omitempty"`
	State        string            `json:"state,omitempty"`
	Lateral      int               `json:"lateral,omitempty"`
	Longitudinal int               `json:"longitudinal,omitempty"`
	Yaw          int               `json:"yaw,omitempty"`
	Vertical     int               `json:"vertical,omitempty"`
}

// Sim is a Driver backed by a desktop drone simulator over a websocket.
// It translates simulator frames into telemetry Events and controller
// commands into simulator frames. Commands stay fire-and-forget: a write
// failure is logged and dropped, never surfaced to the control loop.
type Sim struct {
	url      string
	callback Callback
	logger   *slog.Logger

	mu        sync.Mutex
	ws        *websocket.Conn
	connected bool
	closed    bool

	// writeMu serializes frame writes only. Die and the state machine
	// take mu alone, so a stalled peer cannot hold them up.
	writeMu sync.Mutex
}

// NewSim returns a simulator driver that will dial url on Connect.
// Telemetry events are delivered to cb from the driver's read goroutine.
func NewSim(url string, cb Callback, logger *slog.Logger) *Sim {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sim{url: url, callback: cb, logger: logger}
}

// Connect claims the connection slot and dials the simulator in the
// background, so the caller never waits on the handshake. Repeated calls
// while a dial or link is live, or after Die, are absorbed.
func (s *Sim) Connect() {
	s.mu.Lock()
	if s.connected || s.closed {
		s.mu.Unlock()
		return
	}
	s.connected = true // claim the slot so concurrent calls don't double-dial
	s.mu.Unlock()

	go s.dial()
}

func (s *Sim) dial() {
	dialer := websocket.Dialer{HandshakeTimeout: simHandshakeTimeout}
	ws, _, err := dialer.Dial(s.url, nil)
	if err != nil {
		s.logger.Warn("simulator dial failed", "url", s.url, "error", err)
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		s.emit(Event{Kind: EventState, State: Disconnected})
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ws.Close()
		return
	}
	s.ws = ws
	s.mu.Unlock()

	s.emit(Event{Kind: EventState, State: Connecting})
	go s.readLoop(ws)
}

func (s *Sim) readLoop(ws *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		s.connected = false
		s.ws = nil
		s.mu.Unlock()
		s.emit(Event{Kind: EventState, State: Disconnected})
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.logger.Warn("simulator link lost", "error", err)
			}
			return
		}

		var msg simMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("bad simulator frame", "error", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Sim) dispatch(msg simMessage) {
	switch msg.Type {
	case "message":
		s.emit(Event{Kind: EventMessage, Message: msg.Message})
	case "battery":
		s.emit(Event{Kind: EventBattery, Battery: msg.Battery})
	case "speed":
		s.emit(Event{Kind: EventSpeed, Speed: msg.Speed})
	case "telemetry":
		s.emit(Event{Kind: EventTelemetry, Config: msg.Config})
	case "state":
		st := Disconnected
		switch msg.State {
		case "connected":
			st = Connected
		case "connecting":
			st = Connecting
		}
		s.emit(Event{Kind: EventState, State: st})
	default:
		s.logger.Debug("unknown simulator frame", "type", msg.Type)
	}
}

func (s *Sim) emit(ev Event) {
	if s.callback != nil {
		s.callback(ev)
	}
}

func (s *Sim) send(msg simMessage) {
	s.mu.Lock()
	ws := s.ws
	s.mu.Unlock()
	if ws == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal simulator frame", "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(simWriteTimeout))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Warn("simulator write failed", "type", msg.Type, "error", err)
	}
}

func (s *Sim) TakeOff()   { s.send(simMessage{Type: "takeoff"}) }
func (s *Sim) Still()     { s.send(simMessage{Type: "still"}) }
func (s *Sim) Emergency() { s.send(simMessage{Type: "emergency"}) }

// SendJoy forwards a four-axis actuator command to the simulator.
func (s *Sim) SendJoy(lateral, longitudinal, yaw, vertical int) {
	s.send(simMessage{
		Type:         "joy",
		Lateral:      lateral,
		Longitudinal: longitudinal,
		Yaw:          yaw,
		Vertical:     vertical,
	})
}

// Die closes the simulator link. The driver cannot be reconnected after.
func (s *Sim) Die() {
	s.mu.Lock()
	s.closed = true
	ws := s.ws
	s.ws = nil
	s.mu.Unlock()
	if ws != nil {
		ws.Close()
	}
}
