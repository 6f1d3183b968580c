package encryptor

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"

	"golang.org/x/crypto/nacl/secretbox"
)

// Registered encryptor types.
const (
	TypeSecretbox         = "SECRETBOX"
	TypeSecretboxAssisted = "SECRETBOX_ASSISTED"
)

// Property keys understood by the secretbox encryptors.
const (
	PropKey                  = "key"
	PropKeyID                = "key_id"
	PropCompression          = "compression"
	PropCompressionThreshold = "compression_threshold"
	PropNormalizer           = "normalizer"
)

const defaultKeyID = "v1"

// Secretbox encrypts column values with XSalsa20-Poly1305.
// It is safe for concurrent use.
type Secretbox struct {
	keyID                string
	keys                 *derivedKeys
	compression          string
	compressionThreshold int
}

// NewSecretbox creates a Secretbox from a 32-byte master key.
// The key is not retained; only the derived keys are.
func NewSecretbox(keyID string, masterKey []byte) (*Secretbox, error) {
	if len(keyID) == 0 || len(keyID) > 255 {
		return nil, ErrInvalidKeyID
	}
	keys, err := deriveKeys(masterKey)
	if err != nil {
		return nil, err
	}
	return &Secretbox{
		keyID:                keyID,
		keys:                 keys,
		compression:          compressionZstd,
		compressionThreshold: defaultCompressionThreshold,
	}, nil
}

func newSecretboxFromProps(props Props) (Encryptor, error) {
	return secretboxFromProps(props)
}

func secretboxFromProps(props Props) (*Secretbox, error) {
	encodedKey, err := props.require(PropKey)
	if err != nil {
		return nil, err
	}
	masterKey, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64: %v", ErrInvalidProperty, PropKey, err)
	}

	keyID, ok := props.get(PropKeyID)
	if !ok {
		keyID = defaultKeyID
	}

	s, err := NewSecretbox(keyID, masterKey)
	if err != nil {
		return nil, err
	}

	if algo, ok := props.get(PropCompression); ok {
		if algo != compressionZstd && algo != compressionNone {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedCompression, algo)
		}
		s.compression = algo
	}
	if raw, ok := props.get(PropCompressionThreshold); ok {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidProperty, PropCompressionThreshold)
		}
		s.compressionThreshold = threshold
	}
	return s, nil
}

// Type implements Encryptor.
func (s *Secretbox) Type() string {
	return TypeSecretbox
}

// KeyID returns the key version embedded in new ciphertexts.
func (s *Secretbox) KeyID() string {
	return s.keyID
}

// Encrypt implements Encryptor.
func (s *Secretbox) Encrypt(plaintext []byte) ([]byte, error) {
	if plaintext == nil {
		return nil, nil
	}

	// The inner key_id is authenticated by secretbox.
	inner := make([]byte, 0, 1+len(s.keyID)+len(plaintext))
	inner = append(inner, byte(len(s.keyID)))
	inner = append(inner, s.keyID...)
	inner = append(inner, plaintext...)

	payload, flag := maybeCompress(inner, s.compressionThreshold, s.compression)

	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}
	box := secretbox.Seal(nil, payload, &nonce, &s.keys.encryption)
	return formatCiphertext(flag, s.keyID, nonce, box), nil
}

// Decrypt implements Encryptor.
func (s *Secretbox) Decrypt(ciphertext []byte) ([]byte, error) {
	if ciphertext == nil {
		return nil, nil
	}

	flag, outerKeyID, nonce, box, err := parseCiphertext(ciphertext)
	if err != nil {
		return nil, err
	}
	if outerKeyID != s.keyID {
		return nil, ErrKeyIDMismatch
	}

	opened, ok := secretbox.Open(nil, box, &nonce, &s.keys.encryption)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	inner, err := decompress(opened, flag)
	if err != nil {
		return nil, err
	}

	if len(inner) < 1 || len(inner) < 1+int(inner[0]) {
		return nil, ErrInvalidFormat
	}
	innerKeyID := inner[1 : 1+int(inner[0])]
	if subtle.ConstantTimeCompare(innerKeyID, []byte(outerKeyID)) != 1 {
		return nil, ErrKeyIDMismatch
	}
	return inner[1+int(inner[0]):], nil
}

// generateNonce returns a random 24-byte nonce.
func generateNonce() ([nonceSize]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, fmt.Errorf("encryptor: read nonce: %w", err)
	}
	return nonce, nil
}
