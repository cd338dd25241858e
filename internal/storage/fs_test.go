package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFsStorage_PutWritesUnderRoot(t *testing.T) {
	dir := t.TempDir()
	s := NewFsStorage(dir)
	err := s.Put(context.Background(), "blocks/blocks_1_2.parquet", []byte("hello"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "blocks", "blocks_1_2.parquet"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestFsStorage_PutAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	s := NewFsStorage(dir)
	require.NoError(t, s.PutAtomic(context.Background(), "status.json", []byte(`{"start":0,"end":1}`)))
	require.NoError(t, s.PutAtomic(context.Background(), "status.json", []byte(`{"start":0,"end":2}`)))

	data, err := os.ReadFile(filepath.Join(dir, "status.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"start":0,"end":2}`, string(data))
}

func TestFsStorage_GetMissingReportsNotFound(t *testing.T) {
	dir := t.TempDir()
	s := NewFsStorage(dir)
	data, found, err := s.Get(context.Background(), "mars_syncing_status.json")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, data)
}

func TestFsStorage_GetRoundTripsPut(t *testing.T) {
	dir := t.TempDir()
	s := NewFsStorage(dir)
	require.NoError(t, s.Put(context.Background(), "mars_syncing_status.json", []byte(`{"start":0,"end":5}`)))

	data, found, err := s.Get(context.Background(), "mars_syncing_status.json")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"start":0,"end":5}`, string(data))
}
