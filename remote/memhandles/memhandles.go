// Package memhandles implements both handle-manager interfaces over one
// in-memory table, for tests and for running a server and a client in the
// same process.
//
// A handle moves through create (locked) → Unlock → DeleteHandle. The
// server locks a handle again whenever it uses the strike in a frame; the
// client may only delete handles that are unlocked.
package memhandles

import (
	"fmt"
	"sync"

	"github.com/gogpu/glyphsync/remote"
)

type state uint8

const (
	locked state = iota
	unlocked
	deleted
)

// CacheMiss is one recorded client cache miss.
type CacheMiss struct {
	Kind     remote.CacheMissKind
	FontSize int
}

// Manager is a handle table shared by a server and a client.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	next     remote.HandleID
	handles  map[remote.HandleID]state
	misses   []CacheMiss
	failures []remote.ReadFailure
}

var (
	_ remote.ServerHandleManager = (*Manager)(nil)
	_ remote.ClientHandleManager = (*Manager)(nil)
)

// New returns an empty table.
func New() *Manager {
	return &Manager{handles: make(map[remote.HandleID]state)}
}

func (m *Manager) CreateHandle() remote.HandleID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.handles[m.next] = locked
	return m.next
}

func (m *Manager) LockHandle(id remote.HandleID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.handles[id]
	if !ok || st == deleted {
		return false
	}
	m.handles[id] = locked
	return true
}

// Unlock releases the frame lock on id. It is a no-op for deleted or
// unknown handles.
func (m *Manager) Unlock(id remote.HandleID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.handles[id]; ok && st == locked {
		m.handles[id] = unlocked
	}
}

// UnlockAll releases every frame lock, as at the end of a frame.
func (m *Manager) UnlockAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, st := range m.handles {
		if st == locked {
			m.handles[id] = unlocked
		}
	}
}

func (m *Manager) IsHandleDeleted(id remote.HandleID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.handles[id]
	return !ok || st == deleted
}

func (m *Manager) DeleteHandle(id remote.HandleID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.handles[id]; !ok || st != unlocked {
		return false
	}
	m.handles[id] = deleted
	return true
}

func (m *Manager) AssertHandleValid(id remote.HandleID) {
	m.mu.Lock()
	st, ok := m.handles[id]
	m.mu.Unlock()
	if !ok || st == deleted {
		panic(fmt.Sprintf("memhandles: handle %d is not valid", id))
	}
}

func (m *Manager) NotifyCacheMiss(kind remote.CacheMissKind, fontSize int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses = append(m.misses, CacheMiss{Kind: kind, FontSize: fontSize})
}

func (m *Manager) NotifyReadFailure(f remote.ReadFailure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, f)
}

// CacheMisses returns the misses recorded so far.
func (m *Manager) CacheMisses() []CacheMiss {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CacheMiss(nil), m.misses...)
}

// ReadFailures returns the read failures recorded so far.
func (m *Manager) ReadFailures() []remote.ReadFailure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]remote.ReadFailure(nil), m.failures...)
}
