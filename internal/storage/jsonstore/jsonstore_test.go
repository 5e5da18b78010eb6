package jsonstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "tracking_data.json"))
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.Put(100, "AWB1", "In Transit")
	require.NoError(t, s.Save())

	reloaded := New(s.path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, map[string]string{"AWB1": "In Transit"}, reloaded.List(100))
}

func TestStore_FileShape(t *testing.T) {
	s := newTestStore(t)
	s.Put(100, "AWB1", "In Transit")
	require.NoError(t, s.Save())

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.JSONEq(t, `{"100": {"AWB1": "In Transit"}}`, string(data))
}

func TestStore_LoadMissingFileIsFresh(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())
	subs, waybills := s.Counts()
	require.Zero(t, subs)
	require.Zero(t, waybills)
}

func TestStore_LoadCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"100": {"AWB1"`), 0o644))

	s := New(path)
	require.NoError(t, s.Load())
	subs, waybills := s.Counts()
	require.Zero(t, subs)
	require.Zero(t, waybills)

	// the bad file is kept aside, not silently overwritten
	_, err := os.Stat(path + ".corrupt")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestStore_LoadBadSubscriberKeyStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not-a-number": {"AWB1": "In Transit"}}`), 0o644))

	s := New(path)
	require.NoError(t, s.Load())
	subs, _ := s.Counts()
	require.Zero(t, subs)

	_, err := os.Stat(path + ".corrupt")
	require.NoError(t, err)
}

func TestStore_DeleteRemovesEmptySubscriber(t *testing.T) {
	s := newTestStore(t)
	s.Put(7, "AWB1", "In Transit")

	require.True(t, s.Delete(7, "AWB1"))
	subs, _ := s.Counts()
	require.Zero(t, subs)

	// second delete is a no-op
	require.False(t, s.Delete(7, "AWB1"))
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	s.Put(7, "AWB1", "a")
	s.Put(7, "AWB2", "b")
	s.Put(7, "AWB3", "c")
	s.Put(8, "AWB4", "d")

	require.Equal(t, 3, s.Clear(7))
	require.Empty(t, s.List(7))
	subs, waybills := s.Counts()
	require.Equal(t, 1, subs)
	require.Equal(t, 1, waybills)
}

func TestStore_EmptySubscriberNeverPersisted(t *testing.T) {
	s := newTestStore(t)
	s.Put(7, "AWB1", "a")
	s.Delete(7, "AWB1")
	require.NoError(t, s.Save())

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))
}

func TestStore_Snapshot(t *testing.T) {
	s := newTestStore(t)
	s.Put(1, "A", "x")
	s.Put(2, "B", "y")

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	require.ElementsMatch(t, []Entry{
		{Subscriber: 1, Waybill: "A", Status: "x"},
		{Subscriber: 2, Waybill: "B", Status: "y"},
	}, snap)
}
