package device

import (
	"bytes"
	"sync"

	"frost-ledger/internal/chunk"
	"frost-ledger/internal/network"
	"frost-ledger/internal/status"
	"frost-ledger/internal/wire"
)

// emulator models the device side of the chunk and result protocols.
// Requests are reassembled per instruction and answered by respond.
type emulator struct {
	mu       sync.Mutex
	partSize int
	pathLen  int
	respond  func(ins byte, req []byte) ([]byte, uint16)

	buf       []byte
	receiving bool
	parts     [][]byte
	requests  map[byte][]byte
	apdus     []network.APDU
}

func newEmulator(respond func(ins byte, req []byte) ([]byte, uint16)) *emulator {
	return &emulator{
		partSize: 100,
		pathLen:  4 * PathComponents,
		respond:  respond,
		requests: make(map[byte][]byte),
	}
}

var retrievingIns = map[byte]bool{
	wire.InsDkgRound1:           true,
	wire.InsDkgRound2:           true,
	wire.InsDkgGetCommitments:   true,
	wire.InsDkgSign:             true,
	wire.InsReviewTx:            true,
	wire.InsDkgGetPublicPackage: true,
	wire.InsDkgBackupKeys:       true,
}

var chunkedIns = map[byte]bool{
	wire.InsSign:              true,
	wire.InsDkgRound1:         true,
	wire.InsDkgRound2:         true,
	wire.InsDkgRound3Min:      true,
	wire.InsDkgGetCommitments: true,
	wire.InsDkgSign:           true,
	wire.InsDkgRestoreKeys:    true,
	wire.InsReviewTx:          true,
}

func (e *emulator) HandleAPDU(cmd network.APDU) ([]byte, uint16) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apdus = append(e.apdus, cmd)

	if cmd.INS == wire.InsGetResult {
		if int(cmd.P1) >= len(e.parts) {
			return nil, status.DataIsInvalid
		}
		return e.parts[cmd.P1], status.NoErrors
	}

	req := cmd.Data
	if chunkedIns[cmd.INS] {
		switch chunk.Position(cmd.P1) {
		case chunk.Init:
			e.buf = append([]byte(nil), cmd.Data...)
			e.receiving = true
			return nil, status.NoErrors
		case chunk.Add:
			e.buf = append(e.buf, cmd.Data...)
			return nil, status.NoErrors
		case chunk.Last:
			if !e.receiving {
				e.buf = nil
			}
			e.buf = append(e.buf, cmd.Data...)
			e.receiving = false
		}
		if len(e.buf) < e.pathLen {
			return nil, status.DataIsInvalid
		}
		req = e.buf[e.pathLen:]
	}
	e.requests[cmd.INS] = append([]byte(nil), req...)

	body, sw := e.respond(cmd.INS, req)
	if sw != status.NoErrors || !retrievingIns[cmd.INS] {
		return body, sw
	}
	e.parts = nil
	for len(body) > 0 {
		n := e.partSize
		if n > len(body) {
			n = len(body)
		}
		e.parts = append(e.parts, body[:n])
		body = body[n:]
	}
	return []byte{byte(len(e.parts))}, status.NoErrors
}

func (e *emulator) request(ins byte) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests[ins]
}

func (e *emulator) count(ins byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, a := range e.apdus {
		if a.INS == ins {
			n++
		}
	}
	return n
}

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}
