package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/Zoidster/BirbBot/pkg/errors"
	"github.com/Zoidster/BirbBot/pkg/logger"
)

var backends = []string{BackendBolt, BackendJSON}

func TestNamespaceRoundTrip(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store")
			opener := NewOpener(backend, logger.NewTestLogger())

			h, err := opener.Open(path)
			require.NoError(t, err)

			got, err := h.Namespace("birbs")
			require.NoError(t, err)
			assert.Empty(t, got)

			entries := map[string]string{"abc.jpg": "A birb", "def.png": "Another birb"}
			require.NoError(t, h.PutNamespace("birbs", entries))
			require.NoError(t, h.Close())

			h, err = opener.Open(path)
			require.NoError(t, err)
			defer h.Close()

			got, err = h.Namespace("birbs")
			require.NoError(t, err)
			assert.Equal(t, entries, got)

			other, err := h.Namespace("parrots")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestPutNamespaceOverwrites(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			h, err := NewOpener(backend, nil).Open(filepath.Join(t.TempDir(), "store"))
			require.NoError(t, err)
			defer h.Close()

			require.NoError(t, h.PutNamespace("birbs", map[string]string{"a.jpg": "a", "b.jpg": "b"}))
			require.NoError(t, h.PutNamespace("birbs", map[string]string{"c.jpg": "c"}))

			got, err := h.Namespace("birbs")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"c.jpg": "c"}, got)
		})
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			h, err := NewOpener(backend, nil).Open(filepath.Join(t.TempDir(), "store"))
			require.NoError(t, err)
			defer h.Close()

			require.NoError(t, h.PutNamespace("birbs", map[string]string{"a.jpg": "birb"}))
			require.NoError(t, h.PutNamespace("owls", map[string]string{"a.jpg": "owl"}))

			birbs, err := h.Namespace("birbs")
			require.NoError(t, err)
			owls, err := h.Namespace("owls")
			require.NoError(t, err)

			assert.Equal(t, "birb", birbs["a.jpg"])
			assert.Equal(t, "owl", owls["a.jpg"])

			keys, err := h.Namespaces()
			require.NoError(t, err)
			assert.Equal(t, []string{"birbs", "owls"}, keys)
		})
	}
}

func TestNamespaceReturnsCopy(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			h, err := NewOpener(backend, nil).Open(filepath.Join(t.TempDir(), "store"))
			require.NoError(t, err)
			defer h.Close()

			require.NoError(t, h.PutNamespace("birbs", map[string]string{"a.jpg": "a"}))

			got, err := h.Namespace("birbs")
			require.NoError(t, err)
			got["b.jpg"] = "b"

			again, err := h.Namespace("birbs")
			require.NoError(t, err)
			assert.Len(t, again, 1)
		})
	}
}

func TestEmptyNamespaceKey(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			h, err := NewOpener(backend, nil).Open(filepath.Join(t.TempDir(), "store"))
			require.NoError(t, err)
			defer h.Close()

			_, err = h.Namespace("")
			assert.ErrorIs(t, err, ErrEmptyNamespace)
			assert.ErrorIs(t, h.PutNamespace("", nil), ErrEmptyNamespace)
		})
	}
}

func TestOpenInaccessiblePath(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "dir", "store")

			_, err := NewOpener(backend, nil).Open(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
		})
	}
}

func TestOpenFailureReleasesLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	opener := NewOpener(BackendJSON, nil)
	_, err := opener.Open(path)
	require.ErrorIs(t, err, errs.ErrStorageUnavailable)

	require.NoError(t, os.WriteFile(path, []byte(`{"birbs":{"a.jpg":"a"}}`), 0644))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h, err := opener.Open(path)
		if assert.NoError(t, err) {
			h.Close()
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Open blocked after a failed open")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			h, err := NewOpener(backend, nil).Open(filepath.Join(t.TempDir(), "store"))
			require.NoError(t, err)

			require.NoError(t, h.Close())
			require.NoError(t, h.Close())

			_, err = h.Namespace("birbs")
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestOpenSerialisesSamePath(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store")
			opener := NewOpener(backend, nil)

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()

					h, err := opener.Open(path)
					if !assert.NoError(t, err) {
						return
					}
					defer h.Close()

					entries, err := h.Namespace("shared")
					if !assert.NoError(t, err) {
						return
					}
					entries[filepath.Base(t.Name())+string(rune('a'+n))] = "x"
					assert.NoError(t, h.PutNamespace("shared", entries))
				}(i)
			}
			wg.Wait()

			h, err := opener.Open(path)
			require.NoError(t, err)
			defer h.Close()

			entries, err := h.Namespace("shared")
			require.NoError(t, err)
			assert.Len(t, entries, 8)
		})
	}
}

func TestNewOpenerDefaultsToBolt(t *testing.T) {
	assert.Equal(t, BackendBolt, NewOpener("sqlite", nil).Backend())
	assert.Equal(t, BackendJSON, NewOpener(BackendJSON, nil).Backend())
}
