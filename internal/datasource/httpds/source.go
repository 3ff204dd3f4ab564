package httpds

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"csv2fts/internal/datasource/file"
)

// Source streams a remote file. Every Open issues a fresh GET, so sniffing
// the delimiter and loading read the resource twice.
type Source struct {
	url    string
	client *Client
}

// NewSource returns a Source for rawURL. A nil client means NewClient(Config{}).
func NewSource(rawURL string, client *Client) *Source {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Source{url: rawURL, client: client}
}

// URL returns the configured URL.
func (s *Source) URL() string { return s.url }

// Open fetches the resource and returns its decompressed body. The codec is
// taken from the Content-Disposition filename when present, otherwise from
// the URL path. A Content-Encoding the transport did not undo is not
// handled.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", s.url, resp.Status)
	}

	codec := file.CompressionFor(RemoteName(resp))
	rc, err := file.Decompress(resp.Body, codec)
	if err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %w", s.url, err)
	}
	return rc, nil
}

// RemoteName returns the file name the server advertises for resp, falling
// back to the last element of the request path.
func RemoteName(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		return pathBase(resp.Request.URL)
	}
	return ""
}

func pathBase(u *url.URL) string {
	p := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// IsURL reports whether s looks like an http(s) URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
