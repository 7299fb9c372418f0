package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"frost-ledger/internal/chunk"
	"frost-ledger/internal/logger"
	"frost-ledger/internal/metrics"
	"frost-ledger/internal/status"
	"frost-ledger/internal/wire"
)

const statusWordLen = 2

// Transmitter sends one request to the device and returns the raw response,
// status word included.
type Transmitter interface {
	Transmit(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error)
}

// StatusMessager describes a status word.
type StatusMessager func(code uint16) string

// Recorder persists operation metadata once an operation ends.
type Recorder interface {
	RecordOperation(ctx context.Context, op OperationState) error
}

// Mode fixes the class byte for the lifetime of a session.
type Mode int

const (
	ModePlain Mode = iota
	ModeDKG
)

// ParseMode accepts "plain" and "dkg".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "plain":
		return ModePlain, nil
	case "dkg", "":
		return ModeDKG, nil
	}
	return 0, fmt.Errorf("session: unknown mode %q", s)
}

// Class returns the class byte for the mode.
func (m Mode) Class() byte {
	if m == ModePlain {
		return wire.ClassPlain
	}
	return wire.ClassDKG
}

func (m Mode) String() string {
	if m == ModePlain {
		return "plain"
	}
	return "dkg"
}

// Config holds the collaborators of a Session. Only Chunker is required.
type Config struct {
	Device        string
	Mode          Mode
	Chunker       *chunk.Chunker
	StatusMessage StatusMessager
	Manager       *Manager
	Metrics       *metrics.Collector
	Recorder      Recorder
	// Lock is shared by every session that talks to the same device. A nil
	// Lock gives the session one of its own.
	Lock          *Lock
}

// Lock admits one operation at a time across the sessions that share it.
type Lock struct {
	sem chan struct{}
}

// NewLock returns an unheld Lock.
func NewLock() *Lock {
	return &Lock{sem: make(chan struct{}, 1)}
}

func (l *Lock) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Lock) release() { <-l.sem }

// Command describes one logical device operation.
type Command struct {
	Name        string
	Instruction byte
	// P1 and P2 are used for single-shot commands. Chunked commands carry
	// the frame position in P1 and P2Default in P2.
	P1, P2 byte
	// Path is the encoded derivation path placed ahead of Data when chunked.
	Path []byte
	Data []byte

	Chunked        bool
	RetrieveResult bool
}

// Result is the outcome of a successful operation.
type Result struct {
	OperationID string
	Data        []byte
	StatusWord  uint16
	Message     string
}

// Session serializes device operations over a single transmitter. Only one
// operation is in flight at a time and every exchange is awaited before the
// next one is sent.
type Session struct {
	tx      Transmitter
	cfg     Config
	class   byte
	message StatusMessager
	manager *Manager
	lock    *Lock
}

// New creates a session.
func New(tx Transmitter, cfg Config) (*Session, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: transmitter has not been defined", wire.ErrEncoding)
	}
	if cfg.Chunker == nil {
		return nil, fmt.Errorf("%w: chunker has not been defined", wire.ErrEncoding)
	}
	message := cfg.StatusMessage
	if message == nil {
		message = status.Message
	}
	lock := cfg.Lock
	if lock == nil {
		lock = NewLock()
	}
	manager := cfg.Manager
	if manager == nil {
		manager = NewManager(DefaultHistory)
	}
	return &Session{
		tx:      tx,
		cfg:     cfg,
		class:   cfg.Mode.Class(),
		message: message,
		manager: manager,
		lock:    lock,
	}, nil
}

// Class returns the class byte sent with every request.
func (s *Session) Class() byte { return s.class }

// Manager returns the operation tracker.
func (s *Session) Manager() *Manager { return s.manager }

// Run drives cmd to completion. Waiting for the device respects ctx; once
// the first frame is sent the operation runs to its end so the device is
// never left mid-command by a cancellation.
func (s *Session) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := s.lock.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.lock.release()

	op := s.manager.Begin(s.cfg.Device, cmd.Name, cmd.Instruction)
	start := time.Now()
	logger.Log.Debugf("[Session] %s: starting %s (ins 0x%02x, %d bytes)", s.cfg.Device, cmd.Name, cmd.Instruction, len(cmd.Data))

	data, err := s.run(context.WithoutCancel(ctx), op, cmd)

	sw := status.NoErrors
	var se *StatusError
	if errors.As(err, &se) {
		sw = se.StatusWord
	}
	final, ferr := s.manager.Finish(op.OperationID, sw, err)
	if ferr != nil {
		logger.Log.Errorf("[Session] %s: finishing %s: %v", s.cfg.Device, cmd.Name, ferr)
	}
	s.cfg.Metrics.ObserveOperation(cmd.Name, outcomeOf(err), time.Since(start))
	if s.cfg.Recorder != nil {
		if rerr := s.cfg.Recorder.RecordOperation(context.WithoutCancel(ctx), final); rerr != nil {
			logger.Log.Warnf("[Session] %s: failed to record operation %s: %v", s.cfg.Device, op.OperationID, rerr)
		}
	}

	if err != nil {
		logger.Log.Warnf("[Session] %s: %s failed: %v", s.cfg.Device, cmd.Name, err)
		return nil, err
	}
	logger.Log.Infof("[Session] %s: %s done in %s (%d frames, %d parts)", s.cfg.Device, cmd.Name, time.Since(start), final.Frames, final.Parts)
	return &Result{
		OperationID: op.OperationID.String(),
		Data:        data,
		StatusWord:  status.NoErrors,
		Message:     s.message(status.NoErrors),
	}, nil
}

func (s *Session) run(ctx context.Context, op OperationState, cmd Command) ([]byte, error) {
	var frames []chunk.Frame
	if cmd.Chunked {
		var err error
		frames, err = s.cfg.Chunker.Split(cmd.Path, cmd.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", wire.ErrEncoding, err)
		}
	} else if len(cmd.Data) > s.cfg.Chunker.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes exceed a single frame", wire.ErrEncoding, len(cmd.Data))
	}

	if err := s.manager.Transition(op.OperationID, StateSendingChunks); err != nil {
		return nil, err
	}

	var payload []byte
	var err error
	if cmd.Chunked {
		for _, f := range frames {
			payload, err = s.exchange(ctx, cmd.Instruction, byte(f.Position()), wire.P2Default, f.Data)
			s.manager.RecordFrame(op.OperationID)
			if err != nil {
				return nil, err
			}
		}
	} else {
		payload, err = s.exchange(ctx, cmd.Instruction, cmd.P1, cmd.P2, cmd.Data)
		s.manager.RecordFrame(op.OperationID)
		if err != nil {
			return nil, err
		}
	}

	if !cmd.RetrieveResult {
		return payload, nil
	}
	if err := s.manager.Transition(op.OperationID, StateRetrievingResult); err != nil {
		return nil, err
	}
	return s.retrieve(ctx, op, cmd.Instruction, payload)
}

// retrieve reads the part count from the final response and fetches each
// part in order. Nothing is returned unless every part succeeds.
func (s *Session) retrieve(ctx context.Context, op OperationState, ins byte, final []byte) ([]byte, error) {
	if len(final) == 0 {
		return nil, fmt.Errorf("%w: missing result part count", wire.ErrDecode)
	}
	parts := int(final[0])

	var data []byte
	for i := 0; i < parts; i++ {
		part, err := s.exchange(ctx, wire.InsGetResult, byte(i), wire.P2Default, nil)
		if err != nil {
			return nil, err
		}
		s.manager.RecordPart(op.OperationID)
		data = append(data, part...)
	}
	s.cfg.Metrics.ObserveResultParts(ins, parts)
	return data, nil
}

// exchange transmits one request and splits the status word off the
// response. A non-success status word becomes a StatusError.
func (s *Session) exchange(ctx context.Context, ins, p1, p2 byte, data []byte) ([]byte, error) {
	raw, err := s.tx.Transmit(ctx, s.class, ins, p1, p2, data)
	if err != nil {
		s.cfg.Metrics.ObserveExchange(ins, len(data), metrics.OutcomeTransport)
		return nil, &TransportError{Instruction: ins, Err: err}
	}
	if len(raw) < statusWordLen {
		s.cfg.Metrics.ObserveExchange(ins, len(data), metrics.OutcomeTransport)
		return nil, &TransportError{Instruction: ins, Err: ErrShortResponse}
	}

	payload := raw[:len(raw)-statusWordLen]
	sw := binary.BigEndian.Uint16(raw[len(raw)-statusWordLen:])
	if sw != status.NoErrors {
		s.cfg.Metrics.ObserveExchange(ins, len(data), metrics.OutcomeStatus)
		return nil, &StatusError{Instruction: ins, StatusWord: sw, Message: s.describe(sw, payload)}
	}
	s.cfg.Metrics.ObserveExchange(ins, len(data), metrics.OutcomeOK)
	return payload, nil
}

// describe appends the payload's ASCII text for status words whose payload
// carries a device diagnostic.
func (s *Session) describe(sw uint16, payload []byte) string {
	msg := s.message(sw)
	if status.CarriesDiagnostic(sw) {
		text := make([]byte, len(payload))
		for i, b := range payload {
			text[i] = b & 0x7f
		}
		msg = fmt.Sprintf("%s : %s", msg, text)
	}
	return msg
}

func outcomeOf(err error) string {
	var se *StatusError
	var te *TransportError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &se):
		return metrics.OutcomeStatus
	case errors.As(err, &te):
		return metrics.OutcomeTransport
	case errors.Is(err, wire.ErrDecode):
		return metrics.OutcomeDecode
	default:
		return metrics.OutcomeEncoding
	}
}
