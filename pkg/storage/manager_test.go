package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/Zoidster/BirbBot/pkg/errors"
)

func TestManager(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "Birbs")

	manager := NewManager(tempDir)

	// NewManager must not create the folder
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Fatal("Expected folder to not exist before Ensure")
	}

	require.NoError(t, manager.Ensure())
	require.NoError(t, manager.Ensure())

	if manager.Exists("abc.jpg") {
		t.Error("Expected Exists to return false for non-existent file")
	}

	testData := []byte("test image data")
	require.NoError(t, manager.Save(bytes.NewReader(testData), "abc.jpg"))

	expectedPath := filepath.Join(tempDir, "abc.jpg")
	content, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, testData, content)

	if !manager.Exists("abc.jpg") {
		t.Error("Expected Exists to return true for saved file")
	}

	assert.Equal(t, expectedPath, manager.Path("abc.jpg"))
	assert.Equal(t, tempDir, manager.Dir())

	_, err = os.Stat(expectedPath + partSuffix)
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestExistsIgnoresDirectoriesAndPartials(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "dir.jpg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "half.png.part"), []byte("x"), 0644))

	assert.False(t, manager.Exists("dir.jpg"))
	assert.False(t, manager.Exists("half.png"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	err := manager.Save(failingReader{}, "broken.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrWriteFailed))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveOverwritesStalePartial(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	stale := filepath.Join(tempDir, "abc.png.part")
	require.NoError(t, os.WriteFile(stale, []byte("stale partial content"), 0644))

	require.NoError(t, manager.Save(bytes.NewReader([]byte("fresh")), "abc.png"))

	content, err := os.ReadFile(filepath.Join(tempDir, "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(content))
}

func TestSaveIntoMissingFolder(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing"))

	err := manager.Save(bytes.NewReader([]byte("data")), "abc.jpg")
	assert.ErrorIs(t, err, errs.ErrWriteFailed)
}

func TestSaveRejectsNamesOutsideFolder(t *testing.T) {
	parent := t.TempDir()
	tempDir := filepath.Join(parent, "Birbs")
	manager := NewManager(tempDir)
	require.NoError(t, manager.Ensure())

	names := []string{"p1.a/..", "../escape.jpg", "sub/abc.jpg", "..", ""}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			err := manager.Save(bytes.NewReader([]byte("data")), name)
			assert.ErrorIs(t, err, errs.ErrWriteFailed)
		})
	}

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Birbs", entries[0].Name())

	entries, err = os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExistsRejectsNamesOutsideFolder(t *testing.T) {
	parent := t.TempDir()
	tempDir := filepath.Join(parent, "Birbs")
	manager := NewManager(tempDir)
	require.NoError(t, manager.Ensure())
	require.NoError(t, os.WriteFile(filepath.Join(parent, "outside.jpg"), []byte("x"), 0644))

	assert.False(t, manager.Exists("../outside.jpg"))
	assert.False(t, manager.Exists("p1.ery/"))
	assert.False(t, manager.Exists(".."))
}
