// Package keystore persists agent keypairs, optionally encrypted at rest.
// Two variants are provided: Memory (for tests and short-lived processes)
// and Disk (the default for long-lived agents), both satisfying the same
// capability set: save a keypair under an identifier, load it back.
package keystore

import (
	"github.com/sage-x-project/fides/pkg/fcrypto"
)

// Keystore is the capability every keystore variant exposes.
type Keystore interface {
	Save(did string, kp *fcrypto.KeyPair) error
	Load(did string) (*fcrypto.KeyPair, error)
}
