package api

import (
	"io"
	"math"
)

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// progressReader reports bytes consumed from the request body.
type progressReader struct {
	r          io.Reader
	sent       int64
	total      int64
	onProgress ProgressFunc
}

// newProgressReader wraps r; total <= 0 means unknown and suppresses reports.
func newProgressReader(r io.Reader, total int64, onProgress ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, onProgress: onProgress}
}

// Read forwards to the wrapped reader and reports the new percentage.
func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.total > 0 && p.onProgress != nil {
			p.onProgress(Percent(p.sent, p.total))
		}
	}
	return n, err
}

// Percent returns min(100, 100*sent/total); total must be positive.
func Percent(sent, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Min(100, 100*float64(sent)/float64(total))
}
