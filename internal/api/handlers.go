package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"routeopt/internal/buildinfo"
	"routeopt/internal/matrix"
	"routeopt/internal/model"
	"routeopt/internal/optimizer"
)

// optimizeRequest is the wire shape for POST /v1/optimize. Traffic data
// arrives in one of two distinct shapes (spec §6): "locationPairs" is
// an array of {from, to, factor} triples, "segments" is a map keyed
// "id_a:id_b" -> factor. Both normalize to the same index-pair->factor
// map, but they are not the same JSON shape, so each gets its own
// field and decode path.
type optimizeRequest struct {
	Locations           []model.Location  `json:"locations"`
	Vehicles            []model.Vehicle   `json:"vehicles"`
	Deliveries          []model.Delivery  `json:"deliveries"`
	PDPairs             []model.PDPair    `json:"pdPairs,omitempty"`
	ConsiderTraffic     bool              `json:"considerTraffic,omitempty"`
	ConsiderTimeWindows bool              `json:"considerTimeWindows,omitempty"`
	LocationPairs       []trafficPairWire `json:"locationPairs,omitempty"`
	Segments            segmentsWire      `json:"segments,omitempty"`
	UseAPI              bool              `json:"useApi,omitempty"`
	TimeLimitSeconds    int               `json:"timeLimitSeconds,omitempty"`
	Seed                int64             `json:"seed,omitempty"`
}

type trafficPairWire struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Factor float64 `json:"factor"`
}

// segmentsWire is the "id_a:id_b" -> factor map form of traffic data
// from spec §6. Keys that don't contain exactly one ":" are skipped
// rather than rejected, matching how a malformed locationPairs entry
// would just fail idIndex lookup instead of aborting the decode.
type segmentsWire map[string]float64

func (s segmentsWire) toTrafficPairs() []matrix.TrafficPair {
	out := make([]matrix.TrafficPair, 0, len(s))
	for key, factor := range s {
		from, to, ok := strings.Cut(key, ":")
		if !ok || strings.Contains(to, ":") {
			log.Printf("api: ignoring malformed segment key %q", key)
			continue
		}
		out = append(out, matrix.TrafficPair{From: from, To: to, Factor: factor})
	}
	return out
}

// OptimizeHandler decodes an optimizeRequest, resolves traffic pairs
// against the request's own location order, and delegates to the
// Optimizer's synchronous pipeline.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}

	idIndex := make(map[string]int, len(req.Locations))
	for i, l := range req.Locations {
		idIndex[l.ID] = i
	}
	pairs := append(toTrafficPairs(req.LocationPairs), req.Segments.toTrafficPairs()...)
	trafficData := matrix.NormalizeTrafficPairs(idIndex, pairs)

	timeLimit := time.Duration(req.TimeLimitSeconds) * time.Second

	sol := s.Optimizer.Optimize(r.Context(), optimizer.Request{
		Locations:           req.Locations,
		Vehicles:            req.Vehicles,
		Deliveries:          req.Deliveries,
		PDPairs:             req.PDPairs,
		ConsiderTraffic:     req.ConsiderTraffic,
		ConsiderTimeWindows: req.ConsiderTimeWindows,
		TrafficData:         trafficData,
		UseAPI:              req.UseAPI,
		TimeLimit:           timeLimit,
		Seed:                req.Seed,
	})

	writeSolution(w, r, sol)
}

// rerouteRequest is the wire shape for POST /v1/reroute; Reason
// selects which of the Rerouter's three event handlers runs.
// TrafficLocationPairs/TrafficSegments carry the same two traffic-data
// shapes as optimizeRequest and are only consulted for reason=traffic.
type rerouteRequest struct {
	Reason               string            `json:"reason"`
	CurrentSolution      model.Solution    `json:"currentSolution"`
	Locations            []model.Location  `json:"locations"`
	Vehicles             []model.Vehicle   `json:"vehicles"`
	Deliveries           []model.Delivery  `json:"deliveries"`
	CompletedDeliveryIDs []string          `json:"completedDeliveryIds,omitempty"`
	TrafficLocationPairs []trafficPairWire `json:"locationPairs,omitempty"`
	TrafficSegments      segmentsWire      `json:"segments,omitempty"`
	DelayedLocationIDs   []string          `json:"delayedLocationIds,omitempty"`
	DelayMinutes         map[string]int    `json:"delayMinutes,omitempty"`
	BlockedSegments      [][2]string       `json:"blockedSegments,omitempty"`
}

// RerouteHandler dispatches to ForTraffic, ForDelay, or ForRoadblock
// based on the request's reason field.
func (s *Server) RerouteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req rerouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}

	var sol model.Solution
	switch req.Reason {
	case "traffic":
		idIndex := make(map[string]int, len(req.Locations))
		for i, l := range req.Locations {
			idIndex[l.ID] = i
		}
		pairs := append(toTrafficPairs(req.TrafficLocationPairs), req.TrafficSegments.toTrafficPairs()...)
		trafficData := matrix.NormalizeTrafficPairs(idIndex, pairs)
		sol = s.Rerouter.ForTraffic(r.Context(), req.CurrentSolution, req.Locations, req.Vehicles, req.Deliveries, req.CompletedDeliveryIDs, trafficData)
	case "service_delay":
		sol = s.Rerouter.ForDelay(r.Context(), req.CurrentSolution, req.Locations, req.Vehicles, req.Deliveries, req.CompletedDeliveryIDs, req.DelayedLocationIDs, req.DelayMinutes)
	case "roadblock":
		sol = s.Rerouter.ForRoadblock(r.Context(), req.CurrentSolution, req.Locations, req.Vehicles, req.Deliveries, req.CompletedDeliveryIDs, req.BlockedSegments)
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid reroute reason", "reason must be one of traffic, service_delay, roadblock", r.URL.Path)
		return
	}

	writeSolution(w, r, sol)
}

// HealthHandler reports liveness; the Optimizer has no external
// connections of its own to probe, so this mirrors the teacher's
// trivial HealthHandler rather than its Postgres-backed ReadyHandler.
// The body is {"status": "healthy"} plus the version, commit and
// builtAt fields from buildinfo.Info().
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "healthy"}
	for k, v := range buildinfo.Info() {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeSolution maps a Solution's status onto the HTTP contract from
// spec §6: success is 200, solver-reported no_solution/error are 400
// with the status embedded in the body.
func writeSolution(w http.ResponseWriter, r *http.Request, sol model.Solution) {
	switch sol.Status {
	case model.StatusSuccess:
		writeJSON(w, http.StatusOK, sol)
	default:
		writeJSON(w, http.StatusBadRequest, sol)
	}
}

func toTrafficPairs(wire []trafficPairWire) []matrix.TrafficPair {
	out := make([]matrix.TrafficPair, len(wire))
	for i, w := range wire {
		out[i] = matrix.TrafficPair{From: w.From, To: w.To, Factor: w.Factor}
	}
	return out
}
