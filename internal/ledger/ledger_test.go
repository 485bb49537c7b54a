package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLedgerAppendThenExists(t *testing.T) {
	l, err := NewFileLedger(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	seen, err := l.Exists(ctx, "posting-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, l.Append(ctx, NewRecord("posting-1", OutcomeSent)))

	seen, err = l.Exists(ctx, "posting-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

// Only sent records count as contacted; failed attempts stay eligible
// for a later run.
func TestFileLedgerFailedOutcomeDoesNotDedup(t *testing.T) {
	l, err := NewFileLedger(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Append(ctx, NewRecord("posting-2", OutcomeFailed)))

	seen, err := l.Exists(ctx, "posting-2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestFileLedgerSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileLedger(dir)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, NewRecord("posting-3", OutcomeSent)))
	require.NoError(t, first.Close())

	second, err := NewFileLedger(dir)
	require.NoError(t, err)
	seen, err := second.Exists(ctx, "posting-3")
	require.NoError(t, err)
	assert.True(t, seen, "ledger must survive process restarts")
}

// Duplicate appends for the same posting id are tolerated.
func TestFileLedgerDuplicateAppends(t *testing.T) {
	l, err := NewFileLedger(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Append(ctx, NewRecord("posting-4", OutcomeSent)))
	require.NoError(t, l.Append(ctx, NewRecord("posting-4", OutcomeSent)))

	seen, err := l.Exists(ctx, "posting-4")
	require.NoError(t, err)
	assert.True(t, seen)
}
