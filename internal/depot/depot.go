// Package depot resolves which location in a request acts as the
// depot for a solve, per spec §4.4.
package depot

import "routeopt/internal/model"

// Resolve returns the first location flagged IsDepot, along with its
// index in locations. If none is flagged, locations[0] is used.
// Resolve is stateless and never mutates its input.
func Resolve(locations []model.Location) (model.Location, int) {
	for i, l := range locations {
		if l.IsDepot {
			return l, i
		}
	}
	return locations[0], 0
}
