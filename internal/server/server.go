// Package server exposes the synchronizer over HTTP and WebSocket. Every
// room operation maps to one route; the WebSocket route streams state
// snapshots to subscribed clients.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/scythe504/partydeck-backend/internal/gamesync"
)

type Server struct {
	port int
	sync gamesync.Synchronizer
}

func New(port int, sync gamesync.Synchronizer) *Server {
	return &Server{port: port, sync: sync}
}

// NewHTTPServer wraps the route handler in an http.Server with sane
// timeouts. The WebSocket route relies on hijacked connections, which the
// write timeout does not apply to after the upgrade.
func NewHTTPServer(port int, sync gamesync.Synchronizer) *http.Server {
	s := New(port, sync)
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
