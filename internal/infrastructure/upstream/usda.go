package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"recallrelay/internal/errs"
	"recallrelay/internal/ports"
)

const DefaultUSDABaseURL = "https://www.fsis.usda.gov/fsis/api/recall/v/1"

// usdaQuery is the fixed FSIS filter: meat products, every other facet left open.
var usdaQuery = []struct{ key, value string }{
	{"field_states_id", "All"},
	{"field_archive_recall", "All"},
	{"field_closed_date_value", ""},
	{"field_closed_year_id", "All"},
	{"field_risk_level_id", "All"},
	{"field_processing_id", "All"},
	{"field_product_items_value", "meat"},
	{"field_recall_classification_id", "All"},
	{"field_recall_number", ""},
	{"field_recall_reason_id", "All"},
	{"field_recall_type_id", "All"},
	{"field_related_to_outbreak", "All"},
	{"field_summary_value", ""},
	{"field_year_id", "All"},
	{"field_translation_language", "All"},
}

// USDAClient fetches the live FSIS recall list for the snapshot refresh.
type USDAClient struct {
	requester
	baseURL string
}

var _ ports.SnapshotFetcher = (*USDAClient)(nil)

func NewUSDAClient(httpClient *http.Client, baseURL string, userAgent string) *USDAClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultUSDABaseURL
	}
	return &USDAClient{
		requester: newRequester(httpClient, userAgent),
		baseURL:   baseURL,
	}
}

// FetchSnapshot returns the response as an indented JSON array. A {"data": [...]}
// envelope is unwrapped; any other shape is rejected so a bad response never replaces a
// good snapshot.
func (c *USDAClient) FetchSnapshot(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, c.requestURL())
	if err != nil {
		return nil, errs.Wrap(err, "fetch usda recalls")
	}

	records, err := recordArray(body)
	if err != nil {
		return nil, errs.Wrap(err, "decode usda response")
	}

	var out bytes.Buffer
	if err := json.Indent(&out, records, "", "  "); err != nil {
		return nil, errs.Wrap(err, "format usda snapshot")
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (c *USDAClient) requestURL() string {
	parts := make([]string, 0, len(usdaQuery))
	for _, kv := range usdaQuery {
		parts = append(parts, url.QueryEscape(kv.key)+"="+url.QueryEscape(kv.value))
	}

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + strings.Join(parts, "&")
}

func recordArray(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response")
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return trimmed, nil
	case '{':
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		data := bytes.TrimSpace(envelope.Data)
		if len(data) == 0 || data[0] != '[' {
			return nil, errors.New("response object has no data array")
		}
		return recordArray(data)
	default:
		return nil, errors.New("response is not a JSON array")
	}
}
