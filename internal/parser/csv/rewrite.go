package csv

import (
	"bufio"
	"bytes"
	"io"
	"sort"
)

// streamingRewriter is an io.Reader that performs a streaming, rolling
// find/replace over a set of literal patterns without buffering the entire
// stream. To match sequences that span chunk boundaries, it retains the last
// maxPat-1 bytes (carry) from each processed block and prepends them to the
// next block before replacement.
type streamingRewriter struct {
	br    *bufio.Reader
	pairs []rewritePair
	keep  int
	carry []byte
	buf   bytes.Buffer
	eof   bool
}

type rewritePair struct{ pat, repl []byte }

// newStreamingRewriter wraps r with a rewriter for every pattern→replacement
// in m. Longer patterns are applied first so overlapping keys behave
// deterministically.
func newStreamingRewriter(r io.Reader, m map[string]string) *streamingRewriter {
	pairs := make([]rewritePair, 0, len(m))
	keep := 0
	for pat, repl := range m {
		if pat == "" || pat == repl {
			continue
		}
		pairs = append(pairs, rewritePair{pat: []byte(pat), repl: []byte(repl)})
		if n := len(pat) - 1; n > keep {
			keep = n
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if len(pairs[i].pat) != len(pairs[j].pat) {
			return len(pairs[i].pat) > len(pairs[j].pat)
		}
		return bytes.Compare(pairs[i].pat, pairs[j].pat) < 0
	})
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pairs: pairs,
		keep:  keep,
		carry: make([]byte, 0, keep),
	}
}

// Read fills p from the internal buffer; when empty, it reads the next chunk,
// performs the replacements and withholds the trailing bytes as carry. On EOF
// it flushes the remaining carry.
func (sr *streamingRewriter) Read(p []byte) (int, error) {
	for {
		if sr.buf.Len() > 0 {
			return sr.buf.Read(p)
		}
		if sr.eof {
			return 0, io.EOF
		}

		tmp := make([]byte, 64*1024)
		n, rerr := sr.br.Read(tmp)
		if n > 0 {
			block := tmp[:n]
			if len(sr.carry) > 0 {
				joined := make([]byte, 0, len(sr.carry)+len(block))
				joined = append(joined, sr.carry...)
				joined = append(joined, block...)
				block = joined
			}
			for _, pr := range sr.pairs {
				block = bytes.ReplaceAll(block, pr.pat, pr.repl)
			}

			k := sr.keep
			if k > 0 && len(block) > k {
				sr.buf.Write(block[:len(block)-k])
				sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
			} else if k > 0 {
				sr.carry = append(sr.carry[:0], block...)
			} else {
				sr.buf.Write(block)
			}
		}

		if rerr == io.EOF {
			if len(sr.carry) > 0 {
				sr.buf.Write(sr.carry)
				sr.carry = sr.carry[:0]
			}
			sr.eof = true
		} else if rerr != nil {
			return 0, rerr
		}
	}
}
