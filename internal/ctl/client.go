package ctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"settingsd/pkg/types"
)

// Client is a thin HTTP client for the settingsd API.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient builds a client for the server at addr. addr may be a bare
// host:port or a full http:// URL.
func NewClient(addr string) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{base: base, hc: &http.Client{Timeout: 60 * time.Second}}
}

func (c *Client) do(method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er types.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&er) == nil && er.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, er.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func bucketPath(desk, bucket string) string {
	return "/v1/desks/" + url.PathEscape(desk) + "/buckets/" + url.PathEscape(bucket)
}

func (c *Client) Desks() ([]string, error) {
	var out types.DesksResponse
	if err := c.do(http.MethodGet, "/v1/desks", nil, &out); err != nil {
		return nil, err
	}
	return out.Desks, nil
}

func (c *Client) Desk(desk string) (types.DeskResponse, error) {
	var out types.DeskResponse
	err := c.do(http.MethodGet, "/v1/desks/"+url.PathEscape(desk), nil, &out)
	return out, err
}

func (c *Client) DelDesk(desk string) error {
	return c.do(http.MethodDelete, "/v1/desks/"+url.PathEscape(desk), nil, nil)
}

func (c *Client) Merged(desk string) (types.DeskResponse, error) {
	var out types.DeskResponse
	err := c.do(http.MethodGet, "/v1/desks/"+url.PathEscape(desk)+"/merged", nil, &out)
	return out, err
}

func (c *Client) Bucket(desk, bucket string) (types.BucketResponse, error) {
	var out types.BucketResponse
	err := c.do(http.MethodGet, bucketPath(desk, bucket), nil, &out)
	return out, err
}

func (c *Client) PutBucket(desk, bucket string, entries types.Bucket) error {
	return c.do(http.MethodPut, bucketPath(desk, bucket), entries, nil)
}

func (c *Client) DelBucket(desk, bucket string) error {
	return c.do(http.MethodDelete, bucketPath(desk, bucket), nil, nil)
}

// Entries fetches an ordered page of a bucket. after restricts the page
// to keys strictly greater than it; from is "bottom" or "top" when after
// is empty; limit bounds the page size (0 uses the server default).
func (c *Client) Entries(desk, bucket, after, from string, limit int) (types.EntriesResponse, error) {
	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	} else if from != "" {
		q.Set("from", from)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	p := bucketPath(desk, bucket) + "/entries"
	if len(q) > 0 {
		p += "?" + q.Encode()
	}
	var out types.EntriesResponse
	err := c.do(http.MethodGet, p, nil, &out)
	return out, err
}

func (c *Client) GetEntry(desk, bucket, key string) (types.Value, error) {
	var out types.Value
	err := c.do(http.MethodGet, bucketPath(desk, bucket)+"/entries/"+url.PathEscape(key), nil, &out)
	return out, err
}

func (c *Client) PutEntry(desk, bucket, key string, v types.Value) error {
	return c.do(http.MethodPut, bucketPath(desk, bucket)+"/entries/"+url.PathEscape(key), v, nil)
}

func (c *Client) DelEntry(desk, bucket, key string) error {
	return c.do(http.MethodDelete, bucketPath(desk, bucket)+"/entries/"+url.PathEscape(key), nil, nil)
}

// Await blocks until a matching event fires at path or the server's wait
// budget expires.
func (c *Client) Await(req types.AwaitRequest) (types.AwaitResponse, error) {
	var out types.AwaitResponse
	err := c.do(http.MethodPost, "/v1/await", req, &out)
	return out, err
}

func (c *Client) Status() (types.StatusResponse, error) {
	var out types.StatusResponse
	err := c.do(http.MethodGet, "/v1/status", nil, &out)
	return out, err
}
