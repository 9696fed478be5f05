package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fitstride/fitstride/internal/metrics"
)

// query builds a single PostgREST request against one table. Only the
// operators this application needs are implemented.
type query struct {
	client *Client
	table  string
	params url.Values
	single bool
}

func (c *Client) from(table string) *query {
	return &query{client: c, table: table, params: url.Values{}}
}

func (q *query) sel(columns string) *query {
	q.params.Set("select", columns)
	return q
}

func (q *query) eq(column string, value any) *query {
	q.params.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

func (q *query) neq(column string, value any) *query {
	q.params.Add(column, fmt.Sprintf("neq.%v", value))
	return q
}

// ilike adds a case-insensitive substring match on column.
func (q *query) ilike(column, term string) *query {
	q.params.Add(column, "ilike.*"+escapeTerm(term)+"*")
	return q
}

// or adds a PostgREST or=(...) disjunction; expr is the raw inner expression.
func (q *query) or(expr string) *query {
	q.params.Add("or", "("+expr+")")
	return q
}

func (q *query) in(column string, values []string) *query {
	q.params.Add(column, "in.("+strings.Join(values, ",")+")")
	return q
}

func (q *query) order(column string, ascending bool) *query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Add("order", column+"."+dir)
	return q
}

func (q *query) limit(n int) *query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// one requests exactly one object; PostgREST answers with a bare object or a
// no-rows error that maps to domain.ErrNotFound.
func (q *query) one() *query {
	q.single = true
	return q
}

func (q *query) url() string {
	u := q.client.baseURL + "/rest/v1/" + q.table
	if len(q.params) > 0 {
		u += "?" + q.params.Encode()
	}
	return u
}

// get executes a SELECT and decodes the body into out when non-nil.
func (q *query) get(ctx context.Context, op string, out any) error {
	headers := http.Header{}
	if q.single {
		headers.Set("Accept", "application/vnd.pgrst.object+json")
	}
	body, _, err := q.client.do(ctx, op, http.MethodGet, q.url(), nil, headers)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// count executes a SELECT asking only for the exact row count, parsed from
// the Content-Range header.
func (q *query) count(ctx context.Context, op string) (int, error) {
	headers := http.Header{}
	headers.Set("Prefer", "count=exact")
	headers.Set("Range", "0-0")
	headers.Set("Range-Unit", "items")
	q.params.Set("select", "id")
	_, respHeaders, err := q.client.do(ctx, op, http.MethodGet, q.url(), nil, headers)
	if err != nil {
		return 0, err
	}
	return parseContentRange(respHeaders.Get("Content-Range"))
}

// insert executes an INSERT; the created row(s) are decoded into out when
// non-nil.
func (q *query) insert(ctx context.Context, op string, payload, out any) error {
	return q.write(ctx, op, http.MethodPost, payload, out)
}

// patch executes an UPDATE scoped by the query's filters.
func (q *query) patch(ctx context.Context, op string, payload, out any) error {
	return q.write(ctx, op, http.MethodPatch, payload, out)
}

// delete removes the rows matched by the query's filters.
func (q *query) delete(ctx context.Context, op string) error {
	_, _, err := q.client.do(ctx, op, http.MethodDelete, q.url(), nil, http.Header{})
	return err
}

func (q *query) write(ctx context.Context, op, method string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", q.table, err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if out != nil {
		headers.Set("Prefer", "return=representation")
		if q.single {
			headers.Set("Accept", "application/vnd.pgrst.object+json")
		}
	} else {
		headers.Set("Prefer", "return=minimal")
	}
	body, _, err := q.client.do(ctx, op, method, q.url(), bytes.NewReader(encoded), headers)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// do issues one HTTP request with auth headers attached, records metrics, and
// maps non-2xx responses into the domain error taxonomy.
func (c *Client) do(ctx context.Context, op, method, reqURL string, body io.Reader, headers http.Header) ([]byte, http.Header, error) {
	return c.doWith(ctx, op, method, reqURL, body, headers, mapResponseError)
}

// doWith is do with a caller-chosen error mapper; the auth endpoints read
// failure payloads differently from PostgREST.
func (c *Client) doWith(ctx context.Context, op, method, reqURL string, body io.Reader, headers http.Header, mapErr func(int, []byte) error) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("apikey", c.anonKey)
	if req.Header.Get("Authorization") == "" {
		token := c.auth.accessToken()
		if token == "" {
			token = c.anonKey
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, nil, wrapTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, nil, wrapTransportError(err)
	}
	if resp.StatusCode >= 400 {
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, resp.Header, mapErr(resp.StatusCode, payload)
	}
	metrics.GatewayRequestsTotal.WithLabelValues(op, "ok").Inc()
	return payload, resp.Header, nil
}

func decode(body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseContentRange extracts the total from "0-0/42" or "*/0".
func parseContentRange(value string) (int, error) {
	idx := strings.LastIndex(value, "/")
	if idx < 0 {
		return 0, fmt.Errorf("malformed Content-Range %q", value)
	}
	total := value[idx+1:]
	if total == "*" {
		return 0, nil
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q", value)
	}
	return n, nil
}

// escapeTerm strips PostgREST reserved characters from a user-entered search
// term so it cannot alter query structure.
func escapeTerm(term string) string {
	replacer := strings.NewReplacer(",", "", ".", "", "(", "", ")", "", "*", "", "%", "")
	return replacer.Replace(term)
}
