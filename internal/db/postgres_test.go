package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campushub/internal/pkg/apperrors"
)

// recordingTx implements only the parts of pgx.Tx that runInTx touches
type recordingTx struct {
	pgx.Tx
	rollbackErr error
	commitErr   error
	rolledBack  bool
	committed   bool
}

func (t *recordingTx) Rollback(context.Context) error {
	t.rolledBack = true
	return t.rollbackErr
}

func (t *recordingTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func TestRunInTxCommitsOnSuccess(t *testing.T) {
	tx := &recordingTx{}
	err := runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error { return nil })
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	tx := &recordingTx{}
	err := runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error { return apperrors.ErrStaleState })
	assert.ErrorIs(t, err, apperrors.ErrStaleState)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestRunInTxKeepsCauseWhenRollbackFails(t *testing.T) {
	rollbackErr := errors.New("connection reset")
	for _, cause := range []error{apperrors.ErrCapacityExceeded, apperrors.ErrDuplicateReservation, apperrors.ErrStaleState} {
		tx := &recordingTx{rollbackErr: rollbackErr}
		err := runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error { return cause })
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, rollbackErr)
	}
}

func TestRunInTxWrapsCommitError(t *testing.T) {
	commitErr := errors.New("serialization failure")
	tx := &recordingTx{commitErr: commitErr}
	err := runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error { return nil })
	assert.ErrorIs(t, err, commitErr)
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	tx := &recordingTx{}
	assert.PanicsWithValue(t, "boom", func() {
		_ = runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error { panic("boom") })
	})
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}
