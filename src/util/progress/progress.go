package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reader wraps an io.Reader and reports how much has been consumed, at most
// once per Interval, while key material is hashed.
type Reader struct {
	r     io.Reader
	out   io.Writer
	label string
	total int64

	// Interval throttles updates; zero reports on every read.
	Interval time.Duration

	mu       sync.Mutex
	read     int64
	last     time.Time
	finished bool
}

// NewReader creates a new progress Reader. If total is 0, percentage is omitted.
// A nil out disables reporting.
func NewReader(r io.Reader, total int64, label string, out io.Writer) *Reader {
	return &Reader{r: r, out: out, label: label, total: total, Interval: 200 * time.Millisecond}
}

func (p *Reader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > 0 {
		p.read += int64(n)
		if now := time.Now(); now.Sub(p.last) >= p.Interval {
			p.print()
			p.last = now
		}
	}
	if err == io.EOF && !p.finished {
		p.finished = true
		p.print()
		if p.out != nil {
			fmt.Fprint(p.out, "\n")
		}
	}
	return n, err
}

// Count returns the number of bytes read so far.
func (p *Reader) Count() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read
}

func (p *Reader) print() {
	if p.out == nil {
		return
	}
	if p.total > 0 {
		pct := float64(p.read) / float64(p.total) * 100
		fmt.Fprintf(p.out, "\r[%s] %.1f%% (%d/%d bytes)", p.label, pct, p.read, p.total)
	} else {
		fmt.Fprintf(p.out, "\r[%s] %d bytes", p.label, p.read)
	}
}
