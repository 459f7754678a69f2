package devicesim

import (
	"io"
	"sync"
)

// Port presents a Device as a serial byte stream. Every byte written is a
// command; replies are queued with a CRLF terminator. Read returns io.EOF
// when nothing is queued, which is how a serial read timeout surfaces.
type Port struct {
	mu      sync.Mutex
	dev     *Device
	pending []byte
	closed  bool
}

// NewPort connects a Port to dev.
func NewPort(dev *Device) *Port {
	return &Port{dev: dev}
}

func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	for _, c := range b {
		if c == '\r' || c == '\n' {
			continue
		}
		if reply := p.dev.Handle(c); reply != "" {
			p.pending = append(p.pending, reply...)
			p.pending = append(p.pending, '\r', '\n')
		}
	}
	return len(b), nil
}

func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
