package keystore

import (
	"sync"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/fcrypto"
)

// Memory is an in-memory Keystore for tests and short-lived processes.
// It never touches disk and holds no encryption at rest.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]*fcrypto.KeyPair
}

// NewMemory creates an empty in-memory keystore.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]*fcrypto.KeyPair)}
}

func (m *Memory) Save(did string, kp *fcrypto.KeyPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[did] = &fcrypto.KeyPair{
		PublicKey: append([]byte(nil), kp.PublicKey...),
		Seed:      append([]byte(nil), kp.Seed...),
	}
	return nil
}

func (m *Memory) Load(did string) (*fcrypto.KeyPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kp, ok := m.keys[did]
	if !ok {
		return nil, ferrors.KeyError("no key found for identifier "+did, nil)
	}
	return &fcrypto.KeyPair{
		PublicKey: append([]byte(nil), kp.PublicKey...),
		Seed:      append([]byte(nil), kp.Seed...),
	}, nil
}
