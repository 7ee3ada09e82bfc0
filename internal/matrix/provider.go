package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"routeopt/internal/metrics"
	"routeopt/internal/model"
	"routeopt/internal/routeerr"
)

// Provider fetches a distance/time matrix from an external service. The
// only production implementation is HTTPProvider; tests substitute a
// stub, matching the narrow-interface design note in spec §9.
type Provider interface {
	FetchMatrix(ctx context.Context, locations []model.Location) (distKm, timeMin [][]float64, err error)
}

// HTTPProvider calls a Google-Maps-Distance-Matrix-shaped HTTP endpoint,
// retrying with exponential backoff on transient failures and
// rate-limiting outbound calls with golang.org/x/time/rate so a single
// large batch of locations can't hammer the provider — the domain-stack
// counterpart to the teacher's own reliance on x/time in its go.mod.
type HTTPProvider struct {
	BaseURL       string
	APIKey        string
	HTTPClient    *http.Client
	Limiter       *rate.Limiter
	MaxRetries    int
	BackoffFactor float64
	RetryDelay    time.Duration
}

// NewHTTPProvider builds an HTTPProvider with the retry envelope from
// spec §6 (MAX_RETRIES, BACKOFF_FACTOR, RETRY_DELAY_SECONDS).
func NewHTTPProvider(baseURL, apiKey string, maxRetries int, backoffFactor float64, retryDelay time.Duration) *HTTPProvider {
	return &HTTPProvider{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
		Limiter:       rate.NewLimiter(rate.Limit(5), 5),
		MaxRetries:    maxRetries,
		BackoffFactor: backoffFactor,
		RetryDelay:    retryDelay,
	}
}

type matrixAPIResponse struct {
	Rows []struct {
		Elements []struct {
			DistanceMeters float64 `json:"distanceMeters"`
			DurationSec    float64 `json:"durationSeconds"`
			Status         string  `json:"status"`
		} `json:"elements"`
	} `json:"rows"`
}

// FetchMatrix batch-requests distances and durations, retrying transient
// errors (network, rate limit, 5xx) with exponential backoff up to
// MaxRetries before returning routeerr.ErrProviderUnavailable, which the
// Builder recovers from locally by falling back to Haversine.
func (p *HTTPProvider) FetchMatrix(ctx context.Context, locations []model.Location) (distKm, timeMin [][]float64, err error) {
	var lastErr error
	delay := p.RetryDelay
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * p.BackoffFactor)
		}
		if p.Limiter != nil {
			if werr := p.Limiter.Wait(ctx); werr != nil {
				return nil, nil, werr
			}
		}
		distKm, timeMin, lastErr = p.fetchOnce(ctx, locations)
		if lastErr == nil {
			metrics.ProviderRetries.WithLabelValues("success").Inc()
			return distKm, timeMin, nil
		}
		metrics.ProviderRetries.WithLabelValues("retry").Inc()
	}
	metrics.ProviderRetries.WithLabelValues("exhausted").Inc()
	return nil, nil, fmt.Errorf("%w: %v", routeerr.ErrProviderUnavailable, lastErr)
}

func (p *HTTPProvider) fetchOnce(ctx context.Context, locations []model.Location) ([][]float64, [][]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL, nil)
	if err != nil {
		return nil, nil, err
	}
	q := req.URL.Query()
	q.Set("key", p.APIKey)
	var coords string
	for i, l := range locations {
		if i > 0 {
			coords += "|"
		}
		coords += fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
	}
	q.Set("origins", coords)
	q.Set("destinations", coords)
	req.URL.RawQuery = q.Encode()

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed matrixAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, err
	}

	n := len(locations)
	distKm := make([][]float64, n)
	timeMin := make([][]float64, n)
	for i := range distKm {
		distKm[i] = make([]float64, n)
		timeMin[i] = make([]float64, n)
	}
	for i, row := range parsed.Rows {
		if i >= n {
			break
		}
		for j, el := range row.Elements {
			if j >= n {
				break
			}
			if el.Status != "" && el.Status != "OK" {
				distKm[i][j] = math.NaN()
				timeMin[i][j] = math.NaN()
				continue
			}
			distKm[i][j] = el.DistanceMeters / 1000.0
			timeMin[i][j] = el.DurationSec / 60.0
		}
	}
	return distKm, timeMin, nil
}
