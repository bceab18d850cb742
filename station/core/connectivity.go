package core

import (
	"context"
	"net/http"
	"time"
)

// Oracle answers "is the network currently reachable" at the moment of a
// check-in attempt. It is consulted once per attempt to pick a path; it is
// best-effort, and a partition mid-request is handled by the engine's
// failure classification instead.
type Oracle interface {
	Online(ctx context.Context) bool
}

// ProbeOracle probes the membership server itself. Any HTTP answer counts as
// reachable, including an error status; only a transport failure means
// offline.
type ProbeOracle struct {
	URL    string
	client *http.Client
}

func NewProbeOracle(url string, timeout time.Duration) *ProbeOracle {
	return &ProbeOracle{
		URL:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *ProbeOracle) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
