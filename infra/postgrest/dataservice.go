package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/framez/framez/app"
)

// DataService implements app.DataService against a Supabase-style backend:
// rows over the REST API, change events over the realtime websocket, blobs
// over the storage API.
type DataService struct {
	client   *Client
	realtime *realtimeDialer
}

// NewDataService creates a DataService over the given client. realtimeURL
// is the websocket endpoint; empty disables Subscribe.
func NewDataService(client *Client, realtimeURL string) *DataService {
	var rt *realtimeDialer
	if realtimeURL != "" {
		rt = newRealtimeDialer(realtimeURL, client.apiKey, client.tokens)
	}
	return &DataService{client: client, realtime: rt}
}

func (d *DataService) Query(ctx context.Context, table string, spec app.QuerySpec) ([]app.Row, error) {
	params := url.Values{}
	params.Set("select", selectClause(spec))
	addFilter(params, spec.Filter)
	if spec.Order.Column != "" {
		dir := "asc"
		if spec.Order.Descending {
			dir = "desc"
		}
		params.Set("order", spec.Order.Column+"."+dir)
	}

	data, _, err := d.client.do(ctx, http.MethodGet, restPath(table, params), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}

	var rows []app.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s rows: %w", table, err)
	}
	return rows, nil
}

// Count issues a HEAD request with an exact-count preference and reads the
// total from the Content-Range header, so no rows are materialized.
func (d *DataService) Count(ctx context.Context, table string, filter app.Filter) (int, error) {
	params := url.Values{}
	params.Set("select", "*")
	addFilter(params, filter)

	hdr := http.Header{}
	hdr.Set("Prefer", "count=exact")

	_, respHdr, err := d.client.do(ctx, http.MethodHead, restPath(table, params), nil, hdr)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}

	// Content-Range is "0-24/3573", or "*/0" for an empty result.
	cr := respHdr.Get("Content-Range")
	slash := strings.LastIndex(cr, "/")
	if slash < 0 {
		return 0, fmt.Errorf("counting %s: missing content-range in response", table)
	}
	n, err := strconv.Atoi(cr[slash+1:])
	if err != nil {
		return 0, fmt.Errorf("counting %s: bad content-range %q", table, cr)
	}
	return n, nil
}

func (d *DataService) FindOne(ctx context.Context, table string, filter app.Filter) (app.Row, bool, error) {
	params := url.Values{}
	params.Set("select", "*")
	addFilter(params, filter)
	params.Set("limit", "1")

	data, _, err := d.client.do(ctx, http.MethodGet, restPath(table, params), nil, nil)
	if err != nil {
		return nil, false, fmt.Errorf("finding in %s: %w", table, err)
	}

	var rows []app.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("parsing %s row: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (d *DataService) Insert(ctx context.Context, table string, row app.Row) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("serializing %s row: %w", table, err)
	}

	hdr := http.Header{}
	hdr.Set("Prefer", "return=minimal")

	_, _, err = d.client.do(ctx, http.MethodPost, restPath(table, nil), bytes.NewReader(body), hdr)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}

func (d *DataService) Delete(ctx context.Context, table string, filter app.Filter) error {
	params := url.Values{}
	addFilter(params, filter)

	_, _, err := d.client.do(ctx, http.MethodDelete, restPath(table, params), nil, nil)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	return nil
}

func (d *DataService) Subscribe(ctx context.Context, table string, filter app.Filter, handler func(app.Event)) (app.Subscription, error) {
	if d.realtime == nil {
		return nil, fmt.Errorf("realtime is not configured")
	}
	return d.realtime.subscribe(ctx, table, filter, handler)
}

// StoreBlob uploads to the storage API and returns the public URL for the
// stored object.
func (d *DataService) StoreBlob(ctx context.Context, bucket, name string, data []byte) (string, error) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/octet-stream")

	path := fmt.Sprintf("/storage/v1/object/%s/%s", url.PathEscape(bucket), url.PathEscape(name))
	_, _, err := d.client.do(ctx, http.MethodPost, path, bytes.NewReader(data), hdr)
	if err != nil {
		return "", fmt.Errorf("uploading %s/%s: %w", bucket, name, err)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		d.client.baseURL, url.PathEscape(bucket), url.PathEscape(name)), nil
}

func restPath(table string, params url.Values) string {
	path := "/rest/v1/" + url.PathEscape(table)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return path
}

func selectClause(spec app.QuerySpec) string {
	switch {
	case spec.WithPost:
		return "*,posts(*,profiles(*))"
	case spec.WithAuthor:
		return "*,profiles(*)"
	default:
		return "*"
	}
}

// addFilter appends equality filters in sorted key order so built URLs are
// deterministic.
func addFilter(params url.Values, filter app.Filter) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.Set(k, fmt.Sprintf("eq.%v", filter[k]))
	}
}
