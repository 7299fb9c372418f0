package network

import (
	"errors"
	"io"
	"net"
	"sync"

	"frost-ledger/internal/logger"
	"frost-ledger/internal/status"
)

// Handler answers one command with response data and a status word.
type Handler interface {
	HandleAPDU(cmd APDU) ([]byte, uint16)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(cmd APDU) ([]byte, uint16)

func (f HandlerFunc) HandleAPDU(cmd APDU) ([]byte, uint16) { return f(cmd) }

// Server speaks the device side of the TCP framing. It backs local device
// emulators and tests.
type Server struct {
	handler Handler

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a new server instance.
func NewServer(handler Handler) *Server {
	return &Server{
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start listens on listenAddr and serves connections in the background.
func (s *Server) Start(listenAddr string) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	logger.Log.Infof("[Server] Listening on %s", ln.Addr())

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Log.Errorf("[Server] Accept error: %v", err)
			continue
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	logger.Log.Debugf("[Server] Accepted connection from %s", conn.RemoteAddr())

	for {
		raw, err := ReadRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Log.Warnf("[Server] Failed to read request from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		var data []byte
		sw := status.WrongLength
		if cmd, perr := ParseAPDU(raw); perr == nil {
			data, sw = s.handler.HandleAPDU(cmd)
		} else {
			logger.Log.Warnf("[Server] Malformed apdu: %v", perr)
		}

		if err := WriteResponse(conn, data, sw); err != nil {
			logger.Log.Warnf("[Server] Failed to write response to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// Close stops accepting, drops open connections and waits for handlers.
func (s *Server) Close() error {
	s.mu.Lock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}
