package querylog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "querylog.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.Append(ctx, Entry{
			ProcessedAt: time.Now(),
			ClientAddr:  "[::1]:5000",
			QName:       "www.example.com.",
			QType:       28,
			Synthesized: i%2 == 0,
			RCode:       0,
			LatencyUs:   int64(1000 + i),
		})
		require.NoError(t, err)
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// most recent first
	assert.Equal(t, int64(1002), entries[0].LatencyUs)
	assert.True(t, entries[0].Synthesized)
}

func TestRecentDefaultsLimitWhenNonPositive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, Entry{ProcessedAt: time.Now(), ClientAddr: "a", QName: "a.", QType: 1, RCode: 0, LatencyUs: 1}))

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTrimBoundsRowCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, Entry{ProcessedAt: time.Now(), ClientAddr: "a", QName: "a.", QType: 1, RCode: 0, LatencyUs: int64(i)}))
	}
	require.NoError(t, s.Trim(ctx, 2))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].LatencyUs)
}
