package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finsight/internal/domain/financial"
	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Client reads statements from the statements HTTP service
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a statements service client. baseURL is the service root, without /statements.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Get().With("component", "datastore_client"),
	}
}

type statementResponse struct {
	Ticker string           `json:"ticker"`
	Year   string           `json:"year"`
	Kind   string           `json:"statement_type"`
	Data   financial.Fields `json:"data"`
}

// GetStatement fetches one statement. A 404 or a body without data is errors.ErrNotFound.
func (c *Client) GetStatement(ctx context.Context, ticker string, kind financial.Kind, year string) (*financial.Statement, error) {
	endpoint := fmt.Sprintf("%s/statements/%s/%s/%s",
		c.baseURL, url.PathEscape(ticker), url.PathEscape(kind.String()), url.PathEscape(year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build statement request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordStatementLookup("http", "error")
		return nil, errors.Wrapf(errors.ErrUnavailable, "statement %s/%s/%s: %v", ticker, kind, year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.RecordStatementLookup("http", "miss")
		return nil, errors.Wrapf(errors.ErrNotFound, "statement %s/%s/%s", ticker, kind, year)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.RecordStatementLookup("http", "error")
		return nil, errors.Wrapf(errors.ErrExternal, "statements service returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload statementResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordStatementLookup("http", "error")
		return nil, errors.Wrap(err, "decode statement response")
	}
	if payload.Data == nil {
		metrics.RecordStatementLookup("http", "miss")
		return nil, errors.Wrapf(errors.ErrNotFound, "statement %s/%s/%s has no data", ticker, kind, year)
	}
	metrics.RecordStatementLookup("http", "hit")

	return &financial.Statement{
		Ticker: financial.NormalizeTicker(ticker),
		Kind:   kind,
		Year:   year,
		Data:   payload.Data,
	}, nil
}
