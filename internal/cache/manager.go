package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Manager puts the memory cache in front of the disk cache. Hits on disk
// are promoted to memory.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache
	logger *log.Logger

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates the statistics of both levels.
type ManagerStats struct {
	Hits       int64
	Misses     int64
	MemoryHits int64
	DiskHits   int64
	Promotions int64
	Memory     Stats
	Disk       Stats
}

// NewManager creates a two-level cache. config.DiskPath is required.
func NewManager(config Config, logger *log.Logger) (*Manager, error) {
	if config.DiskPath == "" {
		return nil, errors.New("cache: disk path is required")
	}
	def := DefaultConfig()
	if config.MemoryCapacity <= 0 {
		config.MemoryCapacity = def.MemoryCapacity
	}
	if config.DiskCapacity <= 0 {
		config.DiskCapacity = def.DiskCapacity
	}
	if logger == nil {
		logger = log.Default()
	}

	disk, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	return &Manager{
		memory: NewMemoryCache(config.MemoryCapacity),
		disk:   disk,
		logger: logger.WithPrefix("cache"),
	}, nil
}

// Get checks memory first, then disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.count(func(s *ManagerStats) { s.Hits++; s.MemoryHits++ })
		return data, true
	}

	if data, ok := m.disk.Get(key); ok {
		m.count(func(s *ManagerStats) { s.Hits++; s.DiskHits++ })
		if err := m.memory.Put(key, data); err == nil {
			m.count(func(s *ManagerStats) { s.Promotions++ })
		}
		return data, true
	}

	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, false
}

// Put stores value in both levels. Items too large for memory are kept on
// disk only.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", err)
	}
	if err := m.disk.Put(key, value); err != nil {
		if errors.Is(err, ErrItemTooLarge) {
			m.logger.Debug("Item too large for disk cache", "key", key, "size", len(value))
			return nil
		}
		return fmt.Errorf("disk cache: %w", err)
	}
	return nil
}

// Delete removes key from both levels.
func (m *Manager) Delete(key string) error {
	return errors.Join(m.memory.Delete(key), m.disk.Delete(key))
}

// Clear removes everything from both levels.
func (m *Manager) Clear() error {
	return errors.Join(m.memory.Clear(), m.disk.Clear())
}

// Contains reports whether either level holds key.
func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || m.disk.Contains(key)
}

// Size returns the bytes used on disk, which holds every item.
func (m *Manager) Size() int64 {
	return m.disk.Size()
}

// Stats returns the statistics of both levels.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	stats.Disk = m.disk.Stats()
	return stats
}

// Entries lists the persisted items.
func (m *Manager) Entries() []Entry {
	return m.disk.Entries()
}

// Path returns the disk cache directory.
func (m *Manager) Path() string {
	return m.disk.Path()
}

// Close persists the disk index.
func (m *Manager) Close() error {
	return m.disk.Close()
}

func (m *Manager) count(fn func(*ManagerStats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}
