package drone

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeSim is a websocket endpoint standing in for the desktop simulator.
type fakeSim struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	received []simMessage
}

func (f *fakeSim) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	for {
		var msg simMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		f.mu.Lock()
		f.received = append(f.received, msg)
		f.mu.Unlock()
	}
}

func (f *fakeSim) push(t *testing.T, msg simMessage) {
	t.Helper()
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		t.Fatal("simulator has no client")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}
}

func (f *fakeSim) commands() []simMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]simMessage, len(f.received))
	copy(out, f.received)
	return out
}

func startSim(t *testing.T) (*fakeSim, string) {
	t.Helper()
	sim := &fakeSim{}
	srv := httptest.NewServer(http.HandlerFunc(sim.handler))
	t.Cleanup(srv.Close)
	return sim, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func collectEvents() (func(Event), func() []Event) {
	var mu sync.Mutex
	var events []Event
	cb := func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	get := func() []Event {
		mu.Lock()
		defer mu.Unlock()
		out := make([]Event, len(events))
		copy(out, events)
		return out
	}
	return cb, get
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSim_TranslatesFramesToEvents(t *testing.T) {
	sim, url := startSim(t)
	cb, events := collectEvents()

	drv := NewSim(url, cb, nil)
	defer drv.Die()
	drv.Connect()

	waitFor(t, func() bool {
		for _, ev := range events() {
			if ev.Kind == EventState && ev.State == Connecting {
				return true
			}
		}
		return false
	}, "connecting event")

	sim.push(t, simMessage{Type: "state", State: "connected"})
	sim.push(t, simMessage{Type: "speed", Speed: 17})
	sim.push(t, simMessage{Type: "battery", Battery: "64%"})

	waitFor(t, func() bool { return len(events()) >= 4 }, "telemetry events")

	var conn, speed, battery bool
	for _, ev := range events() {
		switch {
		case ev.Kind == EventState && ev.State == Connected:
			conn = true
		case ev.Kind == EventSpeed && ev.Speed == 17:
			speed = true
		case ev.Kind == EventBattery && ev.Battery == "64%":
			battery = true
		}
	}
	if !conn || !speed || !battery {
		t.Errorf("missing events: conn=%v speed=%v battery=%v (%v)", conn, speed, battery, events())
	}
}

func TestSim_ForwardsCommands(t *testing.T) {
	sim, url := startSim(t)
	cb, _ := collectEvents()

	drv := NewSim(url, cb, nil)
	defer drv.Die()
	drv.Connect()
	waitFor(t, func() bool {
		sim.mu.Lock()
		defer sim.mu.Unlock()
		return sim.conn != nil
	}, "simulator connection")

	drv.TakeOff()
	drv.SendJoy(-10, 0, 25, -100)
	drv.Still()

	waitFor(t, func() bool { return len(sim.commands()) >= 3 }, "commands")

	cmds := sim.commands()
	if cmds[0].Type != "takeoff" {
		t.Errorf("cmds[0] = %+v, want takeoff", cmds[0])
	}
	joy := cmds[1]
	if joy.Type != "joy" || joy.Lateral != -10 || joy.Yaw != 25 || joy.Vertical != -100 {
		t.Errorf("cmds[1] = %+v, want joy(-10, 0, 25, -100)", joy)
	}
	if cmds[2].Type != "still" {
		t.Errorf("cmds[2] = %+v, want still", cmds[2])
	}
}

func TestSim_DisconnectEmitsStateEvent(t *testing.T) {
	sim, url := startSim(t)
	cb, events := collectEvents()

	drv := NewSim(url, cb, nil)
	drv.Connect()
	waitFor(t, func() bool {
		sim.mu.Lock()
		defer sim.mu.Unlock()
		return sim.conn != nil
	}, "simulator connection")

	sim.mu.Lock()
	sim.conn.Close()
	sim.mu.Unlock()

	waitFor(t, func() bool {
		evs := events()
		return len(evs) > 0 && evs[len(evs)-1].Kind == EventState &&
			evs[len(evs)-1].State == Disconnected
	}, "disconnected event")
}

func TestSim_ConnectAbsorbedWhileConnected(t *testing.T) {
	sim, url := startSim(t)
	cb, _ := collectEvents()

	drv := NewSim(url, cb, nil)
	defer drv.Die()
	drv.Connect()
	waitFor(t, func() bool {
		sim.mu.Lock()
		defer sim.mu.Unlock()
		return sim.conn != nil
	}, "simulator connection")

	// A second connect while the link is up must not double-dial.
	drv.Connect()
	drv.TakeOff()
	waitFor(t, func() bool { return len(sim.commands()) >= 1 }, "takeoff")
}

func TestSim_ConnectDoesNotBlockOnHandshake(t *testing.T) {
	// An endpoint that accepts TCP but never answers the handshake.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-hold
	}()

	cb, _ := collectEvents()
	drv := NewSim("ws://"+ln.Addr().String(), cb, nil)
	defer drv.Die()

	start := time.Now()
	drv.Connect()
	if d := time.Since(start); d > 200*time.Millisecond {
		t.Fatalf("Connect blocked for %v", d)
	}
}

func TestSim_DieNotBlockedByStalledWrite(t *testing.T) {
	// A simulator that completes the handshake but never reads, so the
	// socket buffers fill and frame writes stall.
	var upgrader websocket.Upgrader
	hold := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-hold
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(hold) })

	cb, _ := collectEvents()
	drv := NewSim("ws"+strings.TrimPrefix(srv.URL, "http"), cb, nil)
	drv.Connect()
	waitFor(t, func() bool {
		drv.mu.Lock()
		defer drv.mu.Unlock()
		return drv.ws != nil
	}, "simulator connection")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		payload := strings.Repeat("x", 1<<20)
		for i := 0; i < 64; i++ {
			drv.send(simMessage{Type: "message", Message: payload})
		}
	}()

	time.Sleep(50 * time.Millisecond) // let the writer wedge in the buffers

	start := time.Now()
	drv.Die()
	if d := time.Since(start); d > time.Second {
		t.Fatalf("Die blocked for %v behind a stalled write", d)
	}

	select {
	case <-writerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("writer never unblocked after Die")
	}
}
