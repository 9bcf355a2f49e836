package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// Mode selects the execution strategy for a fetch. Both modes produce
// identical readings and errors for the same provider response; the
// concurrent mode only moves the blocking wait off the calling
// goroutine's critical path.
type Mode string

const (
	ModeSync       Mode = "sync"
	ModeConcurrent Mode = "concurrent"
)

// DefaultTimeout is the per-request deadline applied to provider calls.
const DefaultTimeout = 5 * time.Second

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// Reading is a successfully fetched current temperature for a city.
type Reading struct {
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperatureC"`
}

// Client fetches current conditions from OpenWeatherMap. A circuit
// breaker guards the provider; there are no automatic retries, a failed
// attempt is surfaced to the caller immediately.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	timeout time.Duration
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a provider client. A nil httpClient falls back to a
// dedicated client; a non-positive timeout falls back to DefaultTimeout.
func NewClient(httpClient *http.Client, apiKey string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		baseURL: openWeatherURL,
		client:  httpClient,
		timeout: timeout,
		circuit: cb,
	}
}

// Current fetches the current temperature for a city. ModeSync blocks
// the calling goroutine for the duration of the request; ModeConcurrent
// performs the request on a separate goroutine and waits only at the
// I/O boundary, abandoning the request if ctx is cancelled first.
func (c *Client) Current(ctx context.Context, city string, mode Mode) (Reading, error) {
	if mode != ModeConcurrent {
		return c.fetch(ctx, city)
	}

	type result struct {
		reading Reading
		err     error
	}

	// Buffered so the fetch goroutine never blocks after abandonment.
	ch := make(chan result, 1)
	go func() {
		r, err := c.fetch(ctx, city)
		ch <- result{reading: r, err: err}
	}()

	select {
	case <-ctx.Done():
		// The in-flight request is cancelled through ctx; the goroutine
		// cleans up the connection on its own.
		return Reading{}, ctx.Err()
	case res := <-ch:
		return res.reading, res.err
	}
}

func (c *Client) fetch(ctx context.Context, city string) (Reading, error) {
	if c.apiKey == "" {
		return Reading{}, ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return Reading{}, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		return resp, nil
	})
	if err != nil {
		return Reading{}, classifyTransportErr(ctx, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return Reading{}, &NetworkError{Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reading{}, apiErrorFromBody(resp)
	}

	var payload struct {
		Main *struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Main == nil || payload.Main.Temp == nil {
		return Reading{}, ErrMalformedResponse
	}

	return Reading{City: city, TemperatureC: *payload.Main.Temp}, nil
}

// classifyTransportErr maps a failed round trip onto the fetch error
// taxonomy. Deadline expiry becomes ErrTimeout, caller cancellation is
// propagated as-is, everything else is a NetworkError.
func classifyTransportErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return &NetworkError{Err: err}
}

// apiErrorFromBody builds an APIError for a non-200 response, pulling
// the provider's `message` field out of the body when present.
func apiErrorFromBody(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
