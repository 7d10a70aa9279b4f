package ecotracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultFetchTimeout = 10 * time.Second

// DeviceReader is the fetch side of the polling coordinator. Implementations
// perform one GET per Fetch call and never keep state between calls.
type DeviceReader interface {
	// Fetch retrieves one full snapshot. Errors are classified as
	// ErrCannotConnect or ErrInvalidData; the caller decides the retry
	// policy (next scheduled poll).
	Fetch(ctx context.Context) (*Snapshot, error)
	// Probe is the one-shot setup check: same GET, parse and field
	// validation as Fetch, result discarded.
	Probe(ctx context.Context) error
	URL() string
}

type HTTPDeviceReader struct {
	url      string
	required []string
	client   *http.Client
	logger   *zap.Logger
}

func CreateHTTPDeviceReader(host string, variant EndpointVariant, timeout time.Duration, logger *zap.Logger) (*HTTPDeviceReader, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("device host is required")
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	url := host
	if !strings.Contains(host, "://") {
		url = "http://" + host
	}
	url = strings.TrimRight(url, "/") + variant.Path()
	return &HTTPDeviceReader{
		url:      url,
		required: variant.RequiredFields(),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With(zap.String("device", host)),
	}, nil
}

func (r *HTTPDeviceReader) URL() string {
	return r.url
}

func (r *HTTPDeviceReader) Fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", ErrCannotConnect, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCannotConnect, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %s", ErrCannotConnect, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrCannotConnect, resp.StatusCode)
	}

	snapshot, err := SnapshotFromJSON(body, r.required)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("fetched snapshot", zap.Int("fields", snapshot.Len()))
	return snapshot, nil
}

func (r *HTTPDeviceReader) Probe(ctx context.Context) error {
	_, err := r.Fetch(ctx)
	return err
}
