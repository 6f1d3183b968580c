package encryptor

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Info strings for HKDF derivation - distinct strings ensure separate keys
const (
	infoEncryption    = "encryptrewrite-encryption"
	infoAssistedQuery = "encryptrewrite-assisted-query"
)

// derivedKeys holds the keys derived from one master key.
type derivedKeys struct {
	encryption [32]byte // XSalsa20-Poly1305 key
	assisted   [32]byte // HMAC-SHA256 key for assisted query values
}

// deriveKeys derives encryption and assisted query keys from a 32-byte master key.
//
//   - Encryption key: HKDF(masterKey, info="encryptrewrite-encryption")
//   - Assisted query key: HKDF(masterKey, info="encryptrewrite-assisted-query")
func deriveKeys(masterKey []byte) (*derivedKeys, error) {
	if len(masterKey) != 32 {
		return nil, ErrInvalidKeySize
	}

	keys := &derivedKeys{}
	if err := hkdfDerive(masterKey, infoEncryption, keys.encryption[:]); err != nil {
		return nil, err
	}
	if err := hkdfDerive(masterKey, infoAssistedQuery, keys.assisted[:]); err != nil {
		return nil, err
	}
	return keys, nil
}

// hkdfDerive performs HKDF-SHA256 key derivation with the given info string and no salt.
func hkdfDerive(masterKey []byte, info string, out []byte) error {
	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	_, err := io.ReadFull(reader, out)
	return err
}
