//go:build contract

package contract

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

type replayRoute struct {
	statusCode int
	header     http.Header
	body       []byte
	// bodyContains, when set, selects this route only for request bodies containing it.
	bodyContains string
}

type replayTransport struct {
	t        *testing.T
	routes   map[string][]replayRoute
	encoding string
}

func replayKey(method, requestURI string) string {
	return method + " " + requestURI
}

func (rt *replayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.t.Helper()

	var reqBody []byte
	if req.Body != nil {
		var err error
		reqBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	key := replayKey(req.Method, req.URL.RequestURI())
	route, ok := rt.match(key, reqBody)
	if !ok {
		route = replayRoute{
			statusCode: http.StatusNotFound,
			body:       []byte(fmt.Sprintf(`{"error":{"type":"not_found_error","message":"missing replay route: %s"}}`, key)),
		}
	}

	statusCode := route.statusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	header := route.header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}

	body := route.body
	if rt.encoding != "" && len(body) > 0 {
		body = encodeBody(rt.t, rt.encoding, body)
		header.Set("Content-Encoding", rt.encoding)
	}

	return &http.Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}

func (rt *replayTransport) match(key string, reqBody []byte) (replayRoute, bool) {
	var fallback *replayRoute
	for i, route := range rt.routes[key] {
		if route.bodyContains == "" {
			if fallback == nil {
				fallback = &rt.routes[key][i]
			}
			continue
		}
		if bytes.Contains(reqBody, []byte(route.bodyContains)) {
			return route, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return replayRoute{}, false
}

func newReplayHTTPClient(t *testing.T, routes map[string][]replayRoute, encoding string) *http.Client {
	t.Helper()
	return &http.Client{
		Transport: &replayTransport{
			t:        t,
			routes:   routes,
			encoding: encoding,
		},
	}
}

func jsonFixtureRoute(t *testing.T, statusCode int, path string) replayRoute {
	t.Helper()
	return replayRoute{
		statusCode: statusCode,
		body:       loadGoldenFileRaw(t, path),
	}
}

func encodeBody(t *testing.T, encoding string, body []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "br":
		w = brotli.NewWriter(&buf)
	default:
		t.Fatalf("unsupported replay encoding %q", encoding)
	}
	_, err := w.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}
