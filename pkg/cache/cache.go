package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Zoidster/BirbBot/pkg/config"
	errs "github.com/Zoidster/BirbBot/pkg/errors"
	"github.com/Zoidster/BirbBot/pkg/logger"
)

// Supported backends
const (
	BackendBolt = config.BackendBolt
	BackendJSON = config.BackendJSON
)

var (
	// ErrClosed is returned by operations on a closed handle
	ErrClosed = errors.New("cache: handle is closed")
	// ErrEmptyNamespace is returned when a namespace key is empty
	ErrEmptyNamespace = errors.New("cache: namespace key is empty")
)

// Handle is an open dedup store
type Handle interface {
	// Namespace returns a copy of the namespace mapping, empty if absent
	Namespace(key string) (map[string]string, error)
	// PutNamespace replaces the namespace mapping; it is durable on return
	PutNamespace(key string, entries map[string]string) error
	// Namespaces lists the namespace keys present in the store
	Namespaces() ([]string, error)
	// Close releases the store. Calling it more than once is a no-op.
	Close() error
}

type openFunc func(path string) (Handle, error)

// Opener opens store files and guarantees at most one open handle per path
type Opener struct {
	backend string
	open    openFunc
	logger  logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOpener creates an opener for the named backend. Unknown backends fall
// back to bolt.
func NewOpener(backend string, log logger.Logger) *Opener {
	if log == nil {
		log = logger.Nop()
	}

	o := &Opener{
		backend: backend,
		logger:  log.WithField("component", "cache"),
		locks:   make(map[string]*sync.Mutex),
	}

	switch backend {
	case BackendJSON:
		o.open = openFileStore
	default:
		o.backend = BackendBolt
		o.open = func(path string) (Handle, error) {
			s, err := openBoltStore(path, boltLockTimeout)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	return o
}

// Backend returns the backend name in use
func (o *Opener) Backend() string {
	return o.backend
}

// Open opens the store at path, creating it if absent. It blocks while
// another handle for the same path is open in this process.
func (o *Opener) Open(path string) (Handle, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}

	lock := o.pathLock(key)
	lock.Lock()

	start := time.Now()
	h, err := o.open(path)
	if err != nil {
		lock.Unlock()
		o.logger.ErrorWithFields("Failed to open store", map[string]interface{}{
			"path":    path,
			"backend": o.backend,
			"error":   err.Error(),
		})
		return nil, errs.StorageUnavailable(path, err)
	}

	o.logger.DebugWithFields("Store opened", map[string]interface{}{
		"path":    path,
		"backend": o.backend,
		"wait_ms": time.Since(start).Milliseconds(),
	})

	return &lockedHandle{Handle: h, path: path, unlock: lock.Unlock}, nil
}

func (o *Opener) pathLock(key string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	lock, ok := o.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[key] = lock
	}
	return lock
}

// lockedHandle releases the opener's path lock on Close
type lockedHandle struct {
	Handle
	path   string
	unlock func()
	once   sync.Once
	err    error
}

func (h *lockedHandle) Close() error {
	h.once.Do(func() {
		defer h.unlock()
		if err := h.Handle.Close(); err != nil {
			h.err = errs.StorageUnavailable(h.path, fmt.Errorf("close: %w", err))
		}
	})
	return h.err
}

func copyEntries(entries map[string]string) map[string]string {
	out := make(map[string]string, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out
}
