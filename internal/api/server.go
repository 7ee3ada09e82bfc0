// Package api is a thin net/http adapter over the Optimizer and
// Rerouter: JSON in, JSON out, no business logic beyond request
// decoding and status mapping (spec §6's "internal/api is a thin HTTP
// adapter" note). Grounded on the teacher's internal/api/server.go
// Server{...} composition and its ServeMux + logMiddleware wiring in
// cmd/api/main.go.
package api

import (
	"routeopt/internal/optimizer"
	"routeopt/internal/reroute"
)

// Server holds the collaborators every handler needs.
type Server struct {
	Optimizer *optimizer.Optimizer
	Rerouter  *reroute.Rerouter
}

// New builds a Server around an already-wired Optimizer and Rerouter.
func New(o *optimizer.Optimizer, r *reroute.Rerouter) *Server {
	return &Server{Optimizer: o, Rerouter: r}
}
