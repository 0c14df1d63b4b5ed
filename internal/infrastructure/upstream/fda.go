package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"recallrelay/internal/errs"
	"recallrelay/internal/ports"
)

const (
	DefaultFDABaseURL = "https://api.fda.gov/food/enforcement.json"
	DefaultFDALimit   = 100
)

// FDAClient reads the openFDA food enforcement endpoint, newest reports first.
type FDAClient struct {
	requester
	baseURL string
	limit   int
}

var _ ports.FDASource = (*FDAClient)(nil)

func NewFDAClient(httpClient *http.Client, baseURL string, limit int, userAgent string) *FDAClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultFDABaseURL
	}
	if limit <= 0 {
		limit = DefaultFDALimit
	}
	return &FDAClient{
		requester: newRequester(httpClient, userAgent),
		baseURL:   baseURL,
		limit:     limit,
	}
}

type fdaResponse struct {
	Results []json.RawMessage `json:"results"`
}

func (c *FDAClient) FetchRecalls(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.get(ctx, c.requestURL())
	if err != nil {
		return nil, errs.Wrap(err, "fetch fda recalls")
	}

	var resp fdaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Wrap(err, "decode fda response")
	}
	if resp.Results == nil {
		return nil, errors.New("decode fda response: missing results")
	}
	return resp.Results, nil
}

// requestURL keeps the colon in the sort expression literal; openFDA does not need it
// escaped and its docs show it unescaped.
func (c *FDAClient) requestURL() string {
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%ssort=report_date:desc&limit=%d", c.baseURL, sep, c.limit)
}
