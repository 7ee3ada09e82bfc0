package vrp

import (
	"time"

	"routeopt/internal/model"
)

// DefaultSolver adapts the package's free Solve/SolveWithTimeWindows
// functions to the optimizer.Solver interface, so the composition root
// can hand the orchestrator a value rather than reaching into this
// package's function set directly.
type DefaultSolver struct{}

func (DefaultSolver) Solve(distance [][]float64, locIDs []string, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	return Solve(distance, locIDs, vehicles, deliveries, pairs, depotIndex, timeLimit, seed)
}

func (DefaultSolver) SolveWithTimeWindows(distance, timeMatrix [][]float64, locations []model.Location, vehicles []model.Vehicle, deliveries []model.Delivery, pairs []model.PDPair, depotIndex int, timeLimit time.Duration, seed int64) (model.Solution, error) {
	return SolveWithTimeWindows(distance, timeMatrix, locations, vehicles, deliveries, pairs, depotIndex, timeLimit, seed)
}
