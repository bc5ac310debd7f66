package randomness

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"candle/metrics"
	"candle/trc"

	"github.com/hashicorp/go-multierror"
)

// HTTPProvider fetches beacon values over HTTP, using the drand-style
// `GET <endpoint>/public/<round>` API. Endpoints are tried in order until
// one of them answers.
type HTTPProvider struct {
	client    *http.Client
	endpoints []*url.URL
}

var _ Provider = (*HTTPProvider)(nil)

func NewHTTPProvider(client *http.Client, endpoints ...string) (*HTTPProvider, error) {
	if len(endpoints) <= 0 {
		return nil, fmt.Errorf("no randomness endpoints")
	}

	p := &HTTPProvider{client: client}
	for _, e := range endpoints {
		u, err := url.Parse(e)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint %q: %w", e, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("endpoint %q: unsupported scheme %q", e, u.Scheme)
		}
		p.endpoints = append(p.endpoints, u)
	}

	return p, nil
}

type beaconResponse struct {
	Round      uint64 `json:"round"`
	Randomness string `json:"randomness"`
}

func (p *HTTPProvider) Randomness(ctx context.Context, round uint64) (_ []byte, err error) {
	defer func(begin time.Time) {
		metrics.OpWait("randomness_http", time.Since(begin))
		metrics.RandomnessRequestsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}(time.Now())

	merr := &multierror.Error{ErrorFormat: joinErrorStrings}
	for _, endpoint := range p.endpoints {
		randomness, err := p.fetch(ctx, endpoint, round)
		switch {
		case err == nil:
			return randomness, nil
		case errors.Is(err, ErrUnavailable):
			// The beacon is authoritative about missing rounds. Asking
			// another endpoint won't change the answer.
			return nil, err
		default:
			trc.Tracef(ctx, "%s: %v", endpoint.Host, err)
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", endpoint.Host, err))
		}
	}

	return nil, merr.ErrorOrNil()
}

func (p *HTTPProvider) fetch(ctx context.Context, endpoint *url.URL, round uint64) ([]byte, error) {
	u := endpoint.JoinPath("public", strconv.FormatUint(round, 10))

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusTooEarly:
		return nil, fmt.Errorf("round %d: %w", round, ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var br beaconResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if br.Round != 0 && br.Round != round {
		return nil, fmt.Errorf("asked for round %d, got round %d", round, br.Round)
	}

	randomness, err := hex.DecodeString(br.Randomness)
	if err != nil {
		return nil, fmt.Errorf("decode randomness: %w", err)
	}

	if len(randomness) == 0 {
		return nil, fmt.Errorf("round %d: empty value: %w", round, ErrUnavailable)
	}

	trc.Tracef(ctx, "round %d: %dB of randomness from %s", round, len(randomness), endpoint.Host)

	return randomness, nil
}

func joinErrorStrings(errs []error) string {
	strs := make([]string, len(errs))
	for i := range errs {
		strs[i] = errs[i].Error()
	}
	return strings.Join(strs, "; ")
}
