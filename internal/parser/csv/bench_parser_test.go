package csv

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func buildCSV(n int, comma string) []byte {
	var sb strings.Builder
	sb.Grow(n * 64)
	sb.WriteString(strings.Join([]string{"id", "name", "phone", "address", "note"}, comma) + "\n")
	row := strings.Join([]string{"123456", " Анна Петрова ", "+7 900 000-00-00", `"Москва, ул. Ленина, 1"`, "ok"}, comma) + "\n"
	for i := 0; i < n; i++ {
		sb.WriteString(row)
	}
	return []byte(sb.String())
}

func benchRead(b *testing.B, data []byte, opt Options) {
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		rd, err := NewReader(bytes.NewReader(data), opt)
		if err != nil {
			b.Fatalf("NewReader: %v", err)
		}
		if _, err := rd.Header(); err != nil {
			b.Fatalf("Header: %v", err)
		}
		c := 0
		for {
			_, err := rd.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				b.Fatalf("Next: %v", err)
			}
			c++
		}
		if c == 0 {
			b.Fatalf("no rows parsed")
		}
	}
}

func BenchmarkReader_Comma(b *testing.B) {
	benchRead(b, buildCSV(50_000, ","), Options{Comma: ','})
}

func BenchmarkReader_Semicolon(b *testing.B) {
	benchRead(b, buildCSV(50_000, ";"), Options{Comma: ';'})
}
