package encryptor

import (
	"crypto/hmac"
	"crypto/sha256"
)

// AssistedSecretbox is a Secretbox that also derives HMAC-SHA256 blind
// indexes for an assisted query column.
//
// The blind index is deterministic: same normalized plaintext + same key =
// same value, which is what lets an equality predicate be evaluated against
// the assisted query column without decrypting anything.
type AssistedSecretbox struct {
	*Secretbox
	normalize Normalizer
}

// NewAssistedSecretbox creates an AssistedSecretbox. A nil normalizer means NormalizeNone.
func NewAssistedSecretbox(keyID string, masterKey []byte, norm Normalizer) (*AssistedSecretbox, error) {
	s, err := NewSecretbox(keyID, masterKey)
	if err != nil {
		return nil, err
	}
	if norm == nil {
		norm = NormalizeNone
	}
	return &AssistedSecretbox{Secretbox: s, normalize: norm}, nil
}

func newAssistedFromProps(props Props) (Encryptor, error) {
	s, err := secretboxFromProps(props)
	if err != nil {
		return nil, err
	}
	norm, err := NormalizerByName(props[PropNormalizer])
	if err != nil {
		return nil, err
	}
	return &AssistedSecretbox{Secretbox: s, normalize: norm}, nil
}

// Type implements Encryptor.
func (a *AssistedSecretbox) Type() string {
	return TypeSecretboxAssisted
}

// QueryAssistedEncrypt implements QueryAssistedEncryptor.
// Returns nil if plaintext is nil (NULL preservation).
func (a *AssistedSecretbox) QueryAssistedEncrypt(plaintext []byte) ([]byte, error) {
	if plaintext == nil {
		return nil, nil
	}
	normalized := a.normalize(string(plaintext))
	h := hmac.New(sha256.New, a.keys.assisted[:])
	h.Write([]byte(normalized))
	return h.Sum(nil), nil
}
