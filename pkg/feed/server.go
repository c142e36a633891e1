// Package feed serves the two pose ingestion endpoints: the motion-capture
// tracking feed and the simulation target feed. Each is a strict
// one-request-one-reply exchange: the fixed acknowledgement is sent for
// every request, whether or not the payload decoded, because the protocol
// owes its peer exactly one reply per request.
package feed

import (
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/skymote/go-minipilot/pkg/pose"
)

// AckBody is the fixed reply sent for every request.
const AckBody = "I'm fine"

// TrackingHandler receives a decoded mocap pose. reset reports whether the
// request asked for the failure latch to be cleared.
type TrackingHandler func(p pose.Pose, reset bool)

// TargetHandler receives a decoded target pose.
type TargetHandler func(p pose.Pose)

// Server is one pose ingestion endpoint. Requests are processed strictly
// one at a time; the underlying HTTP server may accept concurrently, but
// decode-and-process is serialized so updates land in arrival order.
type Server struct {
	name   string
	addr   string
	app    *fiber.App
	logger *slog.Logger

	mu sync.Mutex
}

// NewTracking builds the mocap feed endpoint. Decoded poses go to process;
// any decode failure invokes halt instead. Both outcomes send AckBody.
func NewTracking(addr string, process TrackingHandler, halt func(), logger *slog.Logger) *Server {
	s := newServer("tracking", addr, logger)
	s.app.Post("/", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		p, reset, err := decodeTracking(c.Body())
		if err != nil {
			s.logger.Warn("rejecting tracking request", "error", err)
			halt()
		} else {
			process(p, reset)
		}
		return c.SendString(AckBody)
	})
	return s
}

// NewTarget builds the simulation feed endpoint.
func NewTarget(addr string, process TargetHandler, halt func(), logger *slog.Logger) *Server {
	s := newServer("target", addr, logger)
	s.app.Post("/", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		p, err := decodeTarget(c.Body())
		if err != nil {
			s.logger.Warn("rejecting target request", "error", err)
			halt()
		} else {
			process(p)
		}
		return c.SendString(AckBody)
	})
	return s
}

func newServer(name, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:               "minipilot " + name + " feed",
		DisableStartupMessage: true,
	})
	return &Server{
		name:   name,
		addr:   addr,
		app:    app,
		logger: logger.With("feed", name),
	}
}

// Listen blocks serving requests until Shutdown.
func (s *Server) Listen() error {
	s.logger.Info("feed listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the endpoint promptly, without waiting for another
// inbound request.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}
