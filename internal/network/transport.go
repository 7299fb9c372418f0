package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"frost-ledger/internal/logger"
)

// ErrClosed is returned by a transport after Close.
var ErrClosed = errors.New("network: transport closed")

// Transport exchanges one serialized command for one raw response.
type Transport interface {
	Exchange(ctx context.Context, apdu []byte) ([]byte, error)
	Close() error
}

// TCPTransport talks to a device, or a device emulator, over a single
// persistent TCP connection. The connection is dialed lazily and dropped
// after any I/O failure so the next exchange reconnects.
type TCPTransport struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewTCPTransport creates a new TCPTransport.
func NewTCPTransport(addr string, timeout time.Duration) *TCPTransport {
	return &TCPTransport{
		addr:    addr,
		timeout: timeout,
	}
}

// Exchange sends apdu and waits for the device to answer.
func (t *TCPTransport) Exchange(ctx context.Context, apdu []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}
	if t.conn == nil {
		var d net.Dialer
		if t.timeout > 0 {
			d.Timeout = t.timeout
		}
		conn, err := d.DialContext(ctx, "tcp", t.addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", t.addr, err)
		}
		logger.Log.Debugf("[TCPTransport] Connected to %s", t.addr)
		t.conn = conn
	}

	if deadline, ok := t.deadline(ctx); ok {
		_ = t.conn.SetDeadline(deadline)
	} else {
		_ = t.conn.SetDeadline(time.Time{})
	}

	if err := WriteRequest(t.conn, apdu); err != nil {
		t.dropLocked()
		return nil, fmt.Errorf("failed to send apdu to %s: %w", t.addr, err)
	}
	resp, err := ReadResponse(t.conn)
	if err != nil {
		t.dropLocked()
		return nil, fmt.Errorf("failed to read response from %s: %w", t.addr, err)
	}
	return resp, nil
}

func (t *TCPTransport) deadline(ctx context.Context) (time.Time, bool) {
	deadline, ok := ctx.Deadline()
	if t.timeout > 0 {
		byTimeout := time.Now().Add(t.timeout)
		if !ok || byTimeout.Before(deadline) {
			return byTimeout, true
		}
	}
	return deadline, ok
}

func (t *TCPTransport) dropLocked() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}

// Close closes the connection. Later exchanges fail with ErrClosed.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// Transmitter adapts a Transport to the session layer by serializing each
// request as an APDU.
type Transmitter struct {
	transport Transport
}

// NewTransmitter creates a new Transmitter.
func NewTransmitter(t Transport) *Transmitter {
	return &Transmitter{transport: t}
}

// Transmit sends one request and returns the raw response.
func (t *Transmitter) Transmit(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	apdu, err := APDU{CLA: cla, INS: ins, P1: p1, P2: p2, Data: data}.Bytes()
	if err != nil {
		return nil, err
	}
	return t.transport.Exchange(ctx, apdu)
}

// Close closes the underlying transport.
func (t *Transmitter) Close() error {
	return t.transport.Close()
}
