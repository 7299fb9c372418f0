package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistory is how many finished operations a Manager remembers.
const DefaultHistory = 256

var (
	ErrOperationNotFound = errors.New("session: operation not found")
	ErrInvalidTransition = errors.New("session: invalid state transition")
)

// State is the lifecycle state of one logical device operation.
type State string

const (
	StateIdle             State = "Idle"
	StateSendingChunks    State = "SendingChunks"
	StateRetrievingResult State = "RetrievingResult"
	StateDone             State = "Done"
	StateFailed           State = "Failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:             {StateSendingChunks, StateFailed},
	StateSendingChunks:    {StateRetrievingResult, StateDone, StateFailed},
	StateRetrievingResult: {StateDone, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OperationState tracks one operation. Copies handed out by the Manager
// share the Done channel, which is closed when the operation ends.
type OperationState struct {
	OperationID uuid.UUID
	Device      string
	Operation   string
	Instruction byte
	Frames      int
	Parts       int
	Status      State
	StatusWord  uint16
	Error       string
	CreatedAt   time.Time
	FinishedAt  time.Time
	Done        chan struct{}
}

// Manager handles the lifecycle of device operations.
type Manager struct {
	operations map[uuid.UUID]*OperationState
	order      []uuid.UUID
	history    int
	mu         sync.RWMutex
}

// NewManager creates a manager that keeps up to history finished operations.
func NewManager(history int) *Manager {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Manager{
		operations: make(map[uuid.UUID]*OperationState),
		history:    history,
	}
}

// Begin registers a new operation in StateIdle.
func (m *Manager) Begin(device, operation string, instruction byte) OperationState {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := &OperationState{
		OperationID: uuid.New(),
		Device:      device,
		Operation:   operation,
		Instruction: instruction,
		Status:      StateIdle,
		CreatedAt:   time.Now(),
		Done:        make(chan struct{}),
	}
	m.operations[op.OperationID] = op
	m.order = append(m.order, op.OperationID)
	m.evictLocked()
	return *op
}

// evictLocked drops the oldest finished operations beyond the history limit.
func (m *Manager) evictLocked() {
	for len(m.order) > m.history {
		victim := -1
		for i, id := range m.order {
			if m.operations[id].Status.Terminal() {
				victim = i
				break
			}
		}
		if victim < 0 {
			return
		}
		delete(m.operations, m.order[victim])
		m.order = append(m.order[:victim], m.order[victim+1:]...)
	}
}

// Transition moves an operation to a non-terminal state.
func (m *Manager) Transition(id uuid.UUID, to State) error {
	if to.Terminal() {
		return fmt.Errorf("%w: use Finish to enter %s", ErrInvalidTransition, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.operations[id]
	if !ok {
		return ErrOperationNotFound
	}
	if !canTransition(op.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, op.Status, to)
	}
	op.Status = to
	return nil
}

// RecordFrame counts a frame sent for the operation.
func (m *Manager) RecordFrame(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op, ok := m.operations[id]; ok {
		op.Frames++
	}
}

// RecordPart counts a result part retrieved for the operation.
func (m *Manager) RecordPart(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op, ok := m.operations[id]; ok {
		op.Parts++
	}
}

// Finish moves the operation to StateDone when opErr is nil and StateFailed
// otherwise, then closes its Done channel.
func (m *Manager) Finish(id uuid.UUID, statusWord uint16, opErr error) (OperationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.operations[id]
	if !ok {
		return OperationState{}, ErrOperationNotFound
	}
	to := StateDone
	if opErr != nil {
		to = StateFailed
		op.Error = opErr.Error()
	}
	if !canTransition(op.Status, to) {
		return *op, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, op.Status, to)
	}
	op.Status = to
	op.StatusWord = statusWord
	op.FinishedAt = time.Now()
	close(op.Done)
	m.evictLocked()
	return *op, nil
}

// GetOperation retrieves an operation by its ID.
func (m *Manager) GetOperation(id uuid.UUID) (OperationState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, exists := m.operations[id]
	if !exists {
		return OperationState{}, false
	}
	return *op, true
}

// Recent returns the remembered operations for device, newest first. An
// empty device matches every device.
func (m *Manager) Recent(device string) []OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]OperationState, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		op := m.operations[m.order[i]]
		if device != "" && op.Device != device {
			continue
		}
		out = append(out, *op)
	}
	return out
}
