package proxy

import "bytes"

// Capture is a size-gated copy of a streamed response body, used to
// populate the cache while the client is served.
//
// Writes never fail and never block: once the body outgrows the limit the
// buffer is dropped and further writes are discarded, leaving the client
// stream untouched. The executor marks a capture complete only after a
// fully successful, cacheable exchange.
type Capture struct {
	limit    int64
	buf      bytes.Buffer
	overflow bool
	complete bool
}

// NewCapture returns a capture that keeps at most limit bytes.
func NewCapture(limit int64) *Capture {
	return &Capture{limit: limit}
}

// Write implements io.Writer.
func (c *Capture) Write(p []byte) (int, error) {
	if c.overflow {
		return len(p), nil
	}
	if int64(c.buf.Len())+int64(len(p)) > c.limit {
		c.abandon()
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

// Bytes returns the captured body and whether it may be cached.
func (c *Capture) Bytes() ([]byte, bool) {
	if !c.complete || c.overflow {
		return nil, false
	}
	return c.buf.Bytes(), true
}

// Overflowed reports whether the body exceeded the limit.
func (c *Capture) Overflowed() bool {
	return c.overflow
}

func (c *Capture) abandon() {
	c.overflow = true
	c.buf = bytes.Buffer{}
}
