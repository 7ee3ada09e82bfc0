package matrix

import (
	"testing"

	"routeopt/internal/model"
)

func TestMockWeatherProviderIsDeterministic(t *testing.T) {
	locations := []model.Location{
		{ID: "depot", Latitude: 0, Longitude: 0},
		{ID: "a", Latitude: 0, Longitude: 1},
		{ID: "b", Latitude: 0, Longitude: 2},
	}
	first := MockWeatherProvider{}.Factors(locations)
	second := MockWeatherProvider{}.Factors(locations)
	if len(first) != len(second) {
		t.Fatalf("want stable factor count, got %d then %d", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Fatalf("want stable factor for %v, got %v then %v", k, v, second[k])
		}
	}
}

func TestMockWeatherProviderOnlyReportsRealImpact(t *testing.T) {
	locations := []model.Location{{ID: "depot"}, {ID: "a"}}
	factors := MockWeatherProvider{}.Factors(locations)
	for pair, f := range factors {
		if f <= 1.0 {
			t.Fatalf("want only >1.0 impacts reported, got %v at %v", f, pair)
		}
	}
}

func TestMockRoadblockProviderCapsAtThree(t *testing.T) {
	locations := make([]model.Location, 10)
	for i := range locations {
		locations[i] = model.Location{ID: string(rune('a' + i))}
	}
	pairs := MockRoadblockProvider{}.Pairs(locations)
	if len(pairs) > 3 {
		t.Fatalf("want at most 3 blocked pairs, got %d", len(pairs))
	}
}

func TestMockRoadblockProviderEmptyBelowTwoLocations(t *testing.T) {
	if pairs := (MockRoadblockProvider{}).Pairs([]model.Location{{ID: "solo"}}); pairs != nil {
		t.Fatalf("want no roadblocks for a single location, got %v", pairs)
	}
}
