package datasource

import (
	"io"

	"github.com/zeebo/xxh3"
)

// ChecksumReader hashes every byte read through it with xxh3. The digest
// identifies the exact content an import consumed, independent of the
// compression the file was stored with.
type ChecksumReader struct {
	r io.Reader
	h *xxh3.Hasher
	n int64
}

// NewChecksumReader wraps r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, h: xxh3.New()}
}

func (c *ChecksumReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		_, _ = c.h.Write(p[:n])
		c.n += int64(n)
	}
	return n, err
}

// Sum64 returns the digest of the bytes read so far.
func (c *ChecksumReader) Sum64() uint64 { return c.h.Sum64() }

// BytesRead returns the number of bytes read so far.
func (c *ChecksumReader) BytesRead() int64 { return c.n }
