// Package httputil holds small request helpers shared by backends that
// talk to REST-shaped embedding and chat endpoints without an SDK.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3/option"
)

// MergeHeaders merges override headers into base, returning a new map.
func MergeHeaders(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]string)
	}
	maps.Copy(out, override)
	return out
}

// AppendHeaderOptions turns a header map into openai-go request options,
// the way the teacher's provider constructors pass through custom
// headers (proxy auth, org IDs) without the SDK needing to know about them.
func AppendHeaderOptions(opts []option.RequestOption, headers map[string]string) []option.RequestOption {
	for k, v := range headers {
		if v == "" {
			continue
		}
		opts = append(opts, option.WithHeader(k, v))
	}
	return opts
}

// PostJSON marshals payload as JSON and posts it, returning the raw body.
func PostJSON(ctx context.Context, url string, headers map[string]string, payload any, timeout time.Duration) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		if v == "" {
			continue
		}
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	return data, resp.StatusCode, nil
}
