package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed buffer is opened.
var ErrDestroyed = errors.New("secure buffer has been destroyed")

// SecureBuffer holds sensitive bytes in a memguard enclave.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	empty     bool
	destroyed bool
}

// NewSecureBuffer seals a copy of data. memguard wipes the source slice.
func NewSecureBuffer(data []byte) *SecureBuffer {
	// memguard refuses zero-length enclaves.
	if len(data) == 0 {
		return &SecureBuffer{empty: true}
	}
	return &SecureBuffer{enclave: memguard.NewEnclave(data)}
}

// NewSecureString seals a string value.
func NewSecureString(s string) *SecureBuffer {
	return NewSecureBuffer([]byte(s))
}

// Empty reports whether the sealed value has zero length.
func (s *SecureBuffer) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.empty
}

// With decrypts the buffer, passes the plaintext to fn and wipes it afterwards.
// fn must not retain the slice.
func (s *SecureBuffer) With(fn func(plain []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if s.empty {
		return fn(nil)
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()
	return fn(locked.Bytes())
}

// Destroy drops the enclave. It is idempotent.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}
