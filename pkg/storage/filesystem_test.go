package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("school-1/timetable.csv", []byte("rows"))
	require.NoError(t, err)
	assert.Equal(t, "school-1/timetable.csv", name)

	data, err := store.Read("school-1/timetable.csv")
	require.NoError(t, err)
	assert.Equal(t, "rows", string(data))

	require.NoError(t, store.Delete("school-1/timetable.csv"))
	_, err = store.Read("school-1/timetable.csv")
	assert.Error(t, err)
}

func TestLocalStorageRejectsNonLocalPaths(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(base, "exports"))
	require.NoError(t, err)

	outside := filepath.Join(base, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("private"), 0o644))

	cases := []string{
		outside,
		"/etc/hostname",
		"../outside.txt",
		"school-1/../../outside.txt",
	}
	for _, name := range cases {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, name)

		_, err = store.Read(name)
		assert.Error(t, err, name)
	}

	// The file outside the base dir was never touched.
	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "private", string(data))
}
