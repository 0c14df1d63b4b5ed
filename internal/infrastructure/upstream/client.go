package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recallrelay/internal/errs"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "recall-relay/1.0"
	maxErrorBody     = 512
	maxResponseBody  = 64 << 20
)

var ErrResponseTooLarge = errors.New("upstream response too large")

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("upstream %s returned status %d", e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// NewHTTPClient returns the client shared by every upstream fetcher.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

type requester struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
}

func newRequester(httpClient *http.Client, userAgent string) requester {
	if httpClient == nil {
		httpClient = NewHTTPClient(defaultTimeout)
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return requester{httpClient: httpClient, userAgent: userAgent, maxBody: maxResponseBody}
}

// get performs a single GET and returns the body of a 2xx response. There is no retry.
func (r requester) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errs.WithStack(errs.Wrap(err, "send request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errs.WithStack(&StatusError{
			URL:        redactQuery(rawURL),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody+1))
	if err != nil {
		return nil, errs.Wrap(err, "read response body")
	}
	if int64(len(body)) > r.maxBody {
		return nil, errs.WithStack(fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, redactQuery(rawURL), r.maxBody))
	}
	return body, nil
}

func redactQuery(rawURL string) string {
	if idx := strings.Index(rawURL, "?"); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}
