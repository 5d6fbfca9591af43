package process

import (
	"bytes"
	"sync"
)

// cappedBuffer accumulates output up to limit bytes and fires onExceed the
// moment the cap is crossed. A limit of zero means unbounded.
type cappedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int
	onExceed func()
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit > 0 && b.buf.Len()+len(p) > b.limit {
		room := b.limit - b.buf.Len()
		if room > 0 {
			b.buf.Write(p[:room])
		}
		if b.onExceed != nil {
			b.onExceed()
		}
		// Report the full length so the child keeps writing instead of
		// dying on EPIPE before the kill lands.
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
