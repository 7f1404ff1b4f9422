package output_test

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/output"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

func TestHTTPPoster_DrainPostsAccumulatedBatch(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = body
		gotPath = r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p2 := output.NewHTTPPoster(output.HTTPPosterOptions{
		URL:       srv.URL + "/ingest",
		Container: output.ContainerAISCatcher,
		StationID: 1,
		Interval:  20 * time.Millisecond,
	}, nil)
	p2.Accept(msgOfType(1, 0, 'A', 244670316), stream.Tag{}, false)
	go p2.Run()
	defer p2.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(gotBody) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/ingest", gotPath)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "aiscatcher", decoded["protocol"])
}

func TestHTTPPoster_GzipWraps(t *testing.T) {
	var mu sync.Mutex
	var gotEncoding string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotEncoding = r.Header.Get("Content-Encoding")
		gotBody, _ = io.ReadAll(r.Body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := output.NewHTTPPoster(output.HTTPPosterOptions{
		URL:       srv.URL,
		Container: output.ContainerNMEA,
		Gzip:      true,
		Interval:  20 * time.Millisecond,
	}, nil)
	p.Accept(msgOfType(1, 0, 'A', 244670316), stream.Tag{}, false)
	go p.Run()
	defer p.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(gotBody) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "gzip", gotEncoding)
	r, err := gzip.NewReader(bytes.NewReader(gotBody))
	require.NoError(t, err)
	plain, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "!AIVDM,")
}
