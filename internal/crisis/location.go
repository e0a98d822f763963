package crisis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xaenox/pocket-therapy/internal/models"
)

// ErrLocationUnavailable is returned by providers that cannot resolve a
// position, for example when permission was denied.
var ErrLocationUnavailable = errors.New("location unavailable")

// LocationProvider resolves a coarse location.
type LocationProvider interface {
	Name() string
	CurrentLocation(ctx context.Context) (models.Location, error)
}

// IPLocator resolves the country of the caller's public IP address through
// an ip-api.com compatible JSON endpoint.
type IPLocator struct {
	baseURL string
	client  *http.Client
}

func NewIPLocator(baseURL string, timeout time.Duration) *IPLocator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IPLocator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (l *IPLocator) Name() string { return "ip" }

type ipLookupResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

func (l *IPLocator) CurrentLocation(ctx context.Context) (models.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/json/?fields=status,message,country,countryCode", nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("build ip lookup request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("ip lookup: unexpected status %d", resp.StatusCode)
	}
	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Location{}, fmt.Errorf("decode ip lookup: %w", err)
	}
	if body.Status != "success" || body.Country == "" {
		return models.Location{}, fmt.Errorf("ip lookup: %w: %s", ErrLocationUnavailable, body.Message)
	}
	return models.Location{Country: body.Country}, nil
}

// StaticLocation always reports the same country. It backs tests and
// deployments that pin a region.
type StaticLocation struct {
	Country string
}

func (s StaticLocation) Name() string { return "static" }

func (s StaticLocation) CurrentLocation(ctx context.Context) (models.Location, error) {
	if s.Country == "" {
		return models.Location{}, ErrLocationUnavailable
	}
	return models.Location{Country: s.Country}, nil
}
