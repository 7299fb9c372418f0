package storage

import (
	"context"
	"testing"
	"time"

	"frost-ledger/internal/session"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)

	store, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func operation(device, name string, created time.Time, st session.State) session.OperationState {
	return session.OperationState{
		OperationID: uuid.New(),
		Device:      device,
		Operation:   name,
		Instruction: 0x11,
		Frames:      2,
		Parts:       4,
		Status:      st,
		StatusWord:  0x9000,
		CreatedAt:   created,
		FinishedAt:  created.Add(time.Second),
	}
}

func TestRecordAndListOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := operation("ledger-1", "dkg_round1", base, session.StateDone)
	second := operation("ledger-1", "dkg_round2", base.Add(time.Minute), session.StateFailed)
	second.StatusWord = 0x6984
	second.Error = "device returned 0x6984"
	other := operation("ledger-2", "get_version", base.Add(2*time.Minute), session.StateDone)

	for _, op := range []session.OperationState{first, second, other} {
		require.NoError(t, store.RecordOperation(ctx, op))
	}

	rows, err := store.ListOperations(ctx, "ledger-1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.OperationID, rows[0].OperationID)
	assert.Equal(t, "Failed", rows[0].Status)
	assert.Equal(t, uint16(0x6984), rows[0].StatusWord)
	assert.Equal(t, "device returned 0x6984", rows[0].Error)
	assert.Equal(t, first.OperationID, rows[1].OperationID)
	assert.Equal(t, 2, rows[1].Frames)
	assert.Equal(t, 4, rows[1].Parts)
	assert.Equal(t, uint8(0x11), rows[1].Instruction)

	rows, err = store.ListOperations(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, other.OperationID, rows[0].OperationID)
}

func TestRecordOperationOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	op := operation("ledger-1", "sign", time.Now().UTC(), session.StateDone)

	require.NoError(t, store.RecordOperation(ctx, op))
	op.Frames = 9
	require.NoError(t, store.RecordOperation(ctx, op))

	rows, err := store.ListOperations(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].Frames)
}

func TestStoreImplementsRecorder(t *testing.T) {
	var _ session.Recorder = (*Store)(nil)
}
