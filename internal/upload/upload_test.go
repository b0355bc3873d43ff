package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Allen20077/8berries/internal/logging"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), logging.New(nil, "silent"))
	require.NoError(t, err)
	return s
}

func TestSave(t *testing.T) {
	s := testStore(t)
	s.now = func() int64 { return 1700000000000 }

	stored, err := s.Save("report.csv", "text/csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "report.csv", stored.Name)
	assert.Equal(t, "text/csv", stored.Type)
	assert.Equal(t, filepath.Join(s.Dir(), "1700000000000-report.csv"), stored.Path)

	data, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestSave_CollidingNames(t *testing.T) {
	s := testStore(t)

	first, err := s.Save("notes.txt", "text/plain", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := s.Save("notes.txt", "text/plain", strings.NewReader("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Path, second.Path)
}

func TestSave_SanitizesPathTraversal(t *testing.T) {
	s := testStore(t)
	s.now = func() int64 { return 42 }

	stored, err := s.Save("../../etc/passwd", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", stored.Name)
	assert.Equal(t, s.Dir(), filepath.Dir(stored.Path))

	stored, err = s.Save(`..\..\windows\boot.ini`, "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "boot.ini", stored.Name)
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	s, err := NewStore(dir, logging.New(nil, "silent"))
	require.NoError(t, err)

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
