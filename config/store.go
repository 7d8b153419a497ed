package config

import "sync"

// BlockStorage is the non-volatile backend a Store persists into. On
// the MCU this is a flash sector; tests use an in-memory buffer.
type BlockStorage interface {
	// Read fills buf from the start of the storage block.
	Read(buf []byte) error
	// Write replaces the storage block contents with data, erasing
	// first if the backend requires it.
	Write(data []byte) error
}

// Store owns the active configuration and its persistence. All methods
// are safe for concurrent use; the control loop takes a snapshot via
// Current and never holds the lock across a tick.
type Store struct {
	mu       sync.Mutex
	backend  BlockStorage
	current  StoredConfig
	crcValid bool
}

// NewStore creates a store over the given backend, initialized with
// defaults until Load is called.
func NewStore(backend BlockStorage) *Store {
	return &Store{
		backend: backend,
		current: DefaultConfig(),
	}
}

// Load reads and validates the stored record. On any failure (read
// error, bad magic, version or CRC) the active configuration falls
// back to defaults and the error is returned for logging; the store
// stays usable either way.
func (s *Store) Load() error {
	buf := make([]byte, storedConfigSize)
	if err := s.backend.Read(buf); err != nil {
		s.resetToDefaults()
		return err
	}

	var cfg StoredConfig
	if err := cfg.UnmarshalBinary(buf); err != nil {
		s.resetToDefaults()
		return err
	}

	s.mu.Lock()
	s.current = cfg
	s.crcValid = true
	s.mu.Unlock()
	return nil
}

// Save persists the active configuration.
func (s *Store) Save() error {
	s.mu.Lock()
	cfg := s.current
	s.mu.Unlock()

	data, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.backend.Write(data); err != nil {
		return err
	}

	s.mu.Lock()
	s.crcValid = true
	s.mu.Unlock()
	return nil
}

// Reset discards the active configuration in favor of the defaults and
// persists them.
func (s *Store) Reset() error {
	s.resetToDefaults()
	return s.Save()
}

func (s *Store) resetToDefaults() {
	s.mu.Lock()
	s.current = DefaultConfig()
	s.crcValid = false
	s.mu.Unlock()
}

// Current returns a snapshot of the active configuration.
func (s *Store) Current() StoredConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrent replaces the active configuration without persisting it;
// call Save to commit.
func (s *Store) SetCurrent(cfg StoredConfig) {
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
}

// Update applies fn to the active configuration under the lock.
func (s *Store) Update(fn func(*StoredConfig)) {
	s.mu.Lock()
	fn(&s.current)
	s.mu.Unlock()
}

// CRCValid reports whether the active configuration came from (or was
// written to) storage with a valid checksum.
func (s *Store) CRCValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crcValid
}

// Version returns the record layout version for status reporting.
func (s *Store) Version() uint16 { return ConfigVersion }
