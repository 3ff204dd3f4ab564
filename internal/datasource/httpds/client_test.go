package httpds

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(time.Duration) {}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true})
	if c.httpClient.Timeout != 0 {
		t.Fatalf("timeout = %v, want none for streaming imports", c.httpClient.Timeout)
	}
	if c.maxRetries != 3 || c.initialBackoff != 200*time.Millisecond || c.maxBackoff != 5*time.Second {
		t.Fatalf("defaults = %d %v %v", c.maxRetries, c.initialBackoff, c.maxBackoff)
	}
	tr, ok := c.httpClient.Transport.(*http.Transport)
	if !ok || tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("transport = %#v", c.httpClient.Transport)
	}

	if NewClient(Config{MaxRetries: -1}).maxRetries != 0 {
		t.Fatalf("negative MaxRetries must disable retries")
	}
}

func TestGet_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "abc" {
			t.Errorf("missing configured header")
		}
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3, Headers: http.Header{"X-Token": {"abc"}}})
	c.sleep = noSleep

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("hits = %d, want 3", got)
	}
}

func TestGet_GivesUp(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 2})
	c.sleep = noSleep

	_, err := c.Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		t.Fatalf("err = %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("hits = %d, want 3", got)
	}
}

func TestGet_NonRetryableReturnsResponse(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := NewClient(Config{}).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("status=%d hits=%d", resp.StatusCode, hits)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestGet_TransportErrorsAndCancel(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var calls int32
	c := NewClient(Config{
		MaxRetries: 1,
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			return nil, boom
		}),
	})
	c.sleep = noSleep

	if _, err := c.Get(context.Background(), "http://example.invalid/x.csv"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "http://example.invalid/x.csv"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := c.Get(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 500 * time.Millisecond},
		{64, 500 * time.Millisecond},
	}
	for _, c := range cases {
		if got := backoffDuration(100*time.Millisecond, c.attempt, 500*time.Millisecond); got != c.want {
			t.Errorf("attempt %d: got %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestSource_OpenDecompressesByName(t *testing.T) {
	t.Parallel()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte("id;name\n1;Ann\n"))
	_ = zw.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/data/people.csv.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gz.Bytes())
	})
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="people.csv.gz"`)
		_, _ = w.Write(gz.Bytes())
	})
	mux.HandleFunc("/plain.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "a,b\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for path, want := range map[string]string{
		"/data/people.csv.gz": "id;name\n1;Ann\n",
		"/export?fmt=csv":     "id;name\n1;Ann\n",
		"/plain.csv":          "a,b\n",
	} {
		rc, err := NewSource(srv.URL+path, nil).Open(context.Background())
		if err != nil {
			t.Fatalf("%s: Open: %v", path, err)
		}
		got, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil || string(got) != want {
			t.Fatalf("%s: got %q, %v", path, got, err)
		}
	}
}

func TestSource_OpenRejectsNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewSource(srv.URL+"/missing.csv", nil).Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("err = %v", err)
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	for s, want := range map[string]bool{
		"https://example.com/a.csv": true,
		"http://host:8080/x":        true,
		"ftp://example.com/a.csv":   false,
		"yandexeda.csv":             false,
		"/tmp/a.csv":                false,
		"https:///nohost":           false,
	} {
		if got := IsURL(s); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", s, got, want)
		}
	}
}
