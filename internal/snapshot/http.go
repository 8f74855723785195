package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
)

const (
	graphPath      = "/graph.json"
	defaultTimeout = 30 * time.Second
	maxBodySize    = 64 << 20
)

// HTTPSource fetches snapshots from the backend's graph endpoint.
type HTTPSource struct {
	endpoint *url.URL
	client   *http.Client
	log      logger.Logger
}

// NewHTTPSource targets backend. A nil client gets a default with a
// timeout.
func NewHTTPSource(backend string, client *http.Client) (*HTTPSource, error) {
	errFactory := errors.New()

	u, err := url.Parse(strings.TrimSpace(backend))
	if err != nil {
		return nil, errFactory.Wrap(ErrInvalidBackend, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errFactory.WithData(ErrInvalidBackend, backend)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + graphPath

	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &HTTPSource{
		endpoint: u,
		client:   client,
		log:      logger.Get(),
	}, nil
}

// URL returns the request URL for req.
func (s *HTTPSource) URL(req Request) string {
	u := *s.endpoint
	q := u.Query()
	q.Set("name", req.Session)
	q.Set("left_axis", req.Selection.LeftMetric)
	q.Set("right_axis", req.Selection.RightMetric)
	q.Set("color_mode", string(req.Selection.ColorMode))
	u.RawQuery = q.Encode()

	return u.String()
}

func (s *HTTPSource) Fetch(ctx context.Context, req Request) ([]meter.ChartPoint, error) {
	errFactory := errors.New()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(req), nil)
	if err != nil {
		return nil, errFactory.Wrap(ErrRequestFailed, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, errFactory.Wrap(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errFactory.WithData(ErrUnexpectedStatus, fmt.Sprintf("%s returned %s", graphPath, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errFactory.Wrap(ErrRequestFailed, err)
	}

	points, err := Parse(body)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("session", req.Session).
		Int("points", len(points)).
		Dur("elapsed", time.Since(started)).
		Msg("Fetched snapshot")

	return points, nil
}
