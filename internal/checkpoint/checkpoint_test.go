package checkpoint

import (
	"context"
	"testing"

	"github.com/mars-etl/ethetl/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoExistingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	st := storage.NewFsStorage(dir)
	s, err := Load(context.Background(), st)
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestLoad_BackendWithoutGetReturnsNil(t *testing.T) {
	st := putOnlyStorage{}
	s, err := Load(context.Background(), st)
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestLoad_RoundTripsPersistedStatus(t *testing.T) {
	dir := t.TempDir()
	st := storage.NewFsStorage(dir)
	store := NewStore(st, 100)

	_, err := store.Complete(context.Background(), 100, 110)
	require.NoError(t, err)

	s, err := Load(context.Background(), st)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, uint64(100), s.Start)
	require.Equal(t, uint64(110), s.End)
}

func TestStore_WatermarkAdvancesOnlyOnContiguousCompletion(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(storage.NewFsStorage(dir), 0)

	// Slice [10,20) finishes before [0,10); watermark must not move yet.
	wm, err := store.Complete(context.Background(), 10, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(0), wm)

	// The missing slice [0,10) finishes; watermark should jump through
	// both completed slices to 20.
	wm, err = store.Complete(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(20), wm)
}

func TestStore_OutOfOrderManySlicesAdvanceContiguously(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(storage.NewFsStorage(dir), 0)

	order := []uint64{30, 10, 0, 20}
	var last uint64
	for _, lo := range order {
		wm, err := store.Complete(context.Background(), lo, lo+10)
		require.NoError(t, err)
		last = wm
	}
	require.Equal(t, uint64(40), last)
	require.Equal(t, uint64(40), store.Watermark())
}

func TestStore_PersistsThroughRenamer(t *testing.T) {
	dir := t.TempDir()
	st := storage.NewFsStorage(dir)
	store := NewStore(st, 50)

	_, err := store.Complete(context.Background(), 50, 60)
	require.NoError(t, err)

	s, err := Load(context.Background(), st)
	require.NoError(t, err)
	require.Equal(t, &Status{Start: 50, End: 60}, s)
}

type putOnlyStorage struct{}

func (putOnlyStorage) Put(ctx context.Context, path string, data []byte) error { return nil }
