// Package client talks to the contas HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/api"
	"contas/internal/core"
)

// ErrTransient marks a request that never got an HTTP response.
var ErrTransient = errors.New("transient network failure")

// StatusError is a non-2xx answer that is neither a validation problem nor
// a missing resource.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a default with a
// 15s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func periodQuery(year, month int) url.Values {
	q := url.Values{}
	if year != 0 {
		q.Set("ano", strconv.Itoa(year))
	}
	if month != 0 {
		q.Set("mes", strconv.Itoa(month))
	}
	return q
}

func (c *Client) ListBills(ctx context.Context, year, month int) ([]api.Bill, error) {
	var out []api.Bill
	err := c.do(ctx, http.MethodGet, "/contas?"+periodQuery(year, month).Encode(), nil, &out)
	return out, err
}

func (c *Client) Search(ctx context.Context, term string, year, month int) ([]api.Bill, error) {
	q := periodQuery(year, month)
	q.Set("valor", term)
	var out []api.Bill
	err := c.do(ctx, http.MethodGet, "/contas/busca?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) CreateBill(ctx context.Context, in api.BillInput) ([]api.Bill, error) {
	var out []api.Bill
	err := c.do(ctx, http.MethodPost, "/contas", in, &out)
	return out, err
}

func (c *Client) EditBill(ctx context.Context, id string, in api.BillInput) ([]api.Bill, error) {
	var out []api.Bill
	err := c.do(ctx, http.MethodPut, "/contas/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) PayBill(ctx context.Context, id string) (api.Bill, error) {
	var out api.Bill
	err := c.do(ctx, http.MethodPut, "/contas/"+url.PathEscape(id)+"/pagar", nil, &out)
	return out, err
}

func (c *Client) UnpayBill(ctx context.Context, id string) (api.Bill, error) {
	var out api.Bill
	err := c.do(ctx, http.MethodPut, "/contas/"+url.PathEscape(id)+"/desmarcar", nil, &out)
	return out, err
}

func (c *Client) DeleteBill(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/contas/"+url.PathEscape(id), nil, nil)
}

// Report downloads the PDF report.
func (c *Client) Report(ctx context.Context, filter core.ReportFilter) ([]byte, error) {
	q := periodQuery(filter.Year, filter.Month)
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Name != "" {
		q.Set("nome", filter.Name)
	}
	resp, err := c.send(ctx, http.MethodGet, "/contas/pdf?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) GetIncome(ctx context.Context, year, month int) (api.Income, error) {
	var out api.Income
	err := c.do(ctx, http.MethodGet, "/receitas?"+periodQuery(year, month).Encode(), nil, &out)
	return out, err
}

func (c *Client) PutIncome(ctx context.Context, in api.IncomeInput) (api.Income, error) {
	var out api.Income
	err := c.do(ctx, http.MethodPut, "/receitas", in, &out)
	return out, err
}

func (c *Client) Balance(ctx context.Context, year, month int) (api.Balance, error) {
	var out api.Balance
	err := c.do(ctx, http.MethodGet, "/receitas/saldo?"+periodQuery(year, month).Encode(), nil, &out)
	return out, err
}

// PutIncomeAmount is a convenience for a single period write.
func (c *Client) PutIncomeAmount(ctx context.Context, year, month int, total decimal.Decimal) (api.Income, error) {
	return c.PutIncome(ctx, api.IncomeInput{Year: year, Month: month, TotalIncome: api.NewAmount(total)})
}

// Replay sends a raw queued request. The response body is discarded.
func (c *Client) Replay(ctx context.Context, method, path string, body json.RawMessage) error {
	var payload any
	if len(body) > 0 {
		payload = body
	}
	return c.do(ctx, method, path, payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and maps error statuses. The caller closes the
// body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransient, method, path, err)
	}
	if resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, decodeError(method, path, resp)
}

func decodeError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var problem api.Problem
	_ = json.Unmarshal(raw, &problem)

	switch {
	case len(problem.Errors) > 0:
		verr := core.NewValidationError()
		for field, msgs := range problem.Errors {
			for _, m := range msgs {
				verr.Add(field, m)
			}
		}
		return verr
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, core.ErrNotFound)
	default:
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
}
