package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultTimeout = 5 * time.Second

// httpClient is the shared plumbing of the remote resolvers: one limiter
// token per request, a bounded timeout and JSON decoding.
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newHTTPClient(client *http.Client, perSecond float64) httpClient {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return httpClient{client: client, limiter: rate.NewLimiter(limit, 1)}
}

func (h httpClient) getJSON(ctx context.Context, req *http.Request, out any) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := h.client.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
