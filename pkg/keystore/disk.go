package keystore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/fcrypto"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// record is the on-disk JSON shape of a keystore entry (spec.md §6).
type record struct {
	DID       string          `json:"did"`
	PublicKey string          `json:"publicKey"`
	Encrypted bool            `json:"encrypted"`
	Data      json.RawMessage `json:"data"`
	CreatedAt string          `json:"createdAt"`
}

type encryptedData struct {
	IV         string `json:"iv"`
	Salt       string `json:"salt"`
	AuthTag    string `json:"authTag"`
	Ciphertext string `json:"ciphertext"`
}

type plaintextData struct {
	PrivateKey string `json:"privateKey"`
}

// Disk is the on-disk Keystore. One file per identifier, named by
// replacing ':' with '-' in the identifier. When Passphrase is non-empty,
// secret keys are stored in an AES-256-GCM envelope; otherwise the secret
// is stored base64-encoded in the clear.
type Disk struct {
	Dir        string
	Passphrase string
}

// NewDisk creates a Disk keystore rooted at dir, creating the directory
// with owner-only permissions if it doesn't already exist.
func NewDisk(dir, passphrase string) (*Disk, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, ferrors.KeyError("create keystore directory", err)
	}
	return &Disk{Dir: dir, Passphrase: passphrase}, nil
}

func (d *Disk) pathFor(did string) string {
	filename := strings.ReplaceAll(did, ":", "-")
	return filepath.Join(d.Dir, filename+".json")
}

func (d *Disk) Save(did string, kp *fcrypto.KeyPair) error {
	rec := record{
		DID:       did,
		PublicKey: fcrypto.Base64Encode(kp.PublicKey),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if d.Passphrase != "" {
		env, err := Seal(d.Passphrase, kp.Seed)
		if err != nil {
			return err
		}
		data, err := json.Marshal(encryptedData{
			IV:         fcrypto.Base64Encode(env.IV),
			Salt:       fcrypto.Base64Encode(env.Salt),
			AuthTag:    fcrypto.Base64Encode(env.AuthTag),
			Ciphertext: fcrypto.Base64Encode(env.Ciphertext),
		})
		if err != nil {
			return ferrors.KeyError("marshal encrypted data", err)
		}
		rec.Encrypted = true
		rec.Data = data
	} else {
		data, err := json.Marshal(plaintextData{PrivateKey: fcrypto.Base64Encode(kp.Seed)})
		if err != nil {
			return ferrors.KeyError("marshal plaintext data", err)
		}
		rec.Encrypted = false
		rec.Data = data
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return ferrors.KeyError("marshal keystore record", err)
	}

	path := d.pathFor(did)
	if err := os.WriteFile(path, raw, filePerm); err != nil {
		return ferrors.KeyError("write keystore file", err)
	}
	// os.WriteFile respects the umask; re-assert the permission explicitly.
	if err := os.Chmod(path, filePerm); err != nil {
		return ferrors.KeyError("chmod keystore file", err)
	}
	return nil
}

func (d *Disk) Load(did string) (*fcrypto.KeyPair, error) {
	path := d.pathFor(did)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.KeyError("read keystore file", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, ferrors.KeyError("unmarshal keystore record", err)
	}
	if rec.DID != did {
		return nil, ferrors.KeyError("keystore file identifier mismatch", nil)
	}

	pub, err := fcrypto.Base64Decode(rec.PublicKey)
	if err != nil {
		return nil, ferrors.KeyError("decode stored public key", err)
	}

	var seed []byte
	if rec.Encrypted {
		var enc encryptedData
		if err := json.Unmarshal(rec.Data, &enc); err != nil {
			return nil, ferrors.KeyError("unmarshal encrypted data", err)
		}
		iv, err := fcrypto.Base64Decode(enc.IV)
		if err != nil {
			return nil, ferrors.KeyError("decode iv", err)
		}
		salt, err := fcrypto.Base64Decode(enc.Salt)
		if err != nil {
			return nil, ferrors.KeyError("decode salt", err)
		}
		authTag, err := fcrypto.Base64Decode(enc.AuthTag)
		if err != nil {
			return nil, ferrors.KeyError("decode authTag", err)
		}
		ciphertext, err := fcrypto.Base64Decode(enc.Ciphertext)
		if err != nil {
			return nil, ferrors.KeyError("decode ciphertext", err)
		}
		seed, err = Open(d.Passphrase, &Envelope{Salt: salt, IV: iv, AuthTag: authTag, Ciphertext: ciphertext})
		if err != nil {
			return nil, err
		}
	} else {
		var pt plaintextData
		if err := json.Unmarshal(rec.Data, &pt); err != nil {
			return nil, ferrors.KeyError("unmarshal plaintext data", err)
		}
		seed, err = fcrypto.Base64Decode(pt.PrivateKey)
		if err != nil {
			return nil, ferrors.KeyError("decode private key", err)
		}
	}

	kp, err := fcrypto.FromSeed(seed)
	if err != nil {
		return nil, err
	}
	if !fcrypto.ConstantTimeEqual(kp.PublicKey, pub) {
		return nil, ferrors.KeyError("stored public key does not match derived public key", nil)
	}
	return kp, nil
}
