package matrix

import (
	"hash/fnv"
	"math"

	"routeopt/internal/model"
)

// WeatherCondition mirrors the categories external_data_service.py's
// _mock_weather_data cycles through.
type WeatherCondition string

const (
	WeatherClear        WeatherCondition = "clear"
	WeatherCloudy       WeatherCondition = "cloudy"
	WeatherRain         WeatherCondition = "rain"
	WeatherSnow         WeatherCondition = "snow"
	WeatherThunderstorm WeatherCondition = "thunderstorm"
)

var weatherConditions = []WeatherCondition{
	WeatherClear, WeatherCloudy, WeatherRain, WeatherSnow, WeatherThunderstorm,
}

var weatherImpactFactor = map[WeatherCondition]float64{
	WeatherClear:        1.0,
	WeatherCloudy:       1.0,
	WeatherRain:         1.2,
	WeatherSnow:         1.5,
	WeatherThunderstorm: 1.8,
}

// MockWeatherProvider assigns each location a weather condition
// deterministically from its ID, then derives per-pair impact factors
// as the worse of the two endpoints' conditions. Ports
// external_data_service.py's calculate_weather_impact for use in
// config.Testing runs, trading _mock_weather_data's random.choice for
// a hash so the same locations always produce the same factors.
type MockWeatherProvider struct{}

func conditionFor(locationID string) WeatherCondition {
	h := fnv.New32a()
	_, _ = h.Write([]byte(locationID))
	return weatherConditions[h.Sum32()%uint32(len(weatherConditions))]
}

// Factors returns a TrafficFactors map keyed by matrix index pair,
// including only pairs where the worse endpoint's impact exceeds 1.0
// (calculate_weather_impact's "only add if there's actually some
// impact" rule).
func (MockWeatherProvider) Factors(locations []model.Location) TrafficFactors {
	conditions := make([]WeatherCondition, len(locations))
	for i, l := range locations {
		conditions[i] = conditionFor(l.ID)
	}
	out := make(TrafficFactors)
	for i := range locations {
		for j := range locations {
			if i == j {
				continue
			}
			impact := math.Max(weatherImpactFactor[conditions[i]], weatherImpactFactor[conditions[j]])
			if impact > 1.0 {
				out[[2]int{i, j}] = impact
			}
		}
	}
	return out
}

// MockRoadblockProvider deterministically flags a small, fixed set of
// location pairs as blocked, mirroring _mock_roadblock_data's "~5% of
// routes, capped at 3" sizing without the randomness, so repeated runs
// under config.Testing see the same roadblocks.
type MockRoadblockProvider struct{}

// Pairs returns up to three blocked (from, to) location ID pairs for
// the given locations. Empty when fewer than two locations are given.
func (MockRoadblockProvider) Pairs(locations []model.Location) [][2]string {
	n := len(locations)
	if n < 2 {
		return nil
	}
	count := (5 * n * (n - 1)) / 100
	if count > 3 {
		count = 3
	}
	out := make([][2]string, 0, count)
	for i := 0; len(out) < count && i < n; i++ {
		from := i
		to := (i + n/2 + 1) % n
		if from == to {
			continue
		}
		out = append(out, [2]string{locations[from].ID, locations[to].ID})
	}
	return out
}
