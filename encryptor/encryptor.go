// Package encryptor provides the column encryptors referenced by encrypt rules.
//
// An encryptor is registered under a type name and built from string
// properties, the way rule configuration files describe them:
//
//	enc, err := encryptor.New("SECRETBOX_ASSISTED", map[string]string{
//	    "key_id":     "v1",
//	    "key":        base64Key, // 32 bytes, standard base64
//	    "normalizer": "email",
//	})
//
// SECRETBOX seals values with XSalsa20-Poly1305 under a key derived from the
// master key with HKDF-SHA256. SECRETBOX_ASSISTED additionally derives a
// separate HMAC-SHA256 key and produces deterministic assisted query values
// (blind indexes) for equality search.
package encryptor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Encryptor encrypts and decrypts the values of one logical column.
type Encryptor interface {
	// Type returns the registered type name.
	Type() string

	// Encrypt seals plaintext. A nil plaintext stays nil (NULL preservation).
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt opens a value produced by Encrypt. A nil ciphertext stays nil.
	Decrypt(ciphertext []byte) ([]byte, error)
}

// QueryAssistedEncryptor is an Encryptor that can also derive deterministic
// values for an assisted query column.
type QueryAssistedEncryptor interface {
	Encryptor

	// QueryAssistedEncrypt returns the deterministic search value for plaintext.
	QueryAssistedEncrypt(plaintext []byte) ([]byte, error)
}

// Props are the string properties an encryptor is configured with.
type Props map[string]string

// Factory builds an encryptor from its properties.
type Factory func(props Props) (Encryptor, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		TypeSecretbox:         newSecretboxFromProps,
		TypeSecretboxAssisted: newAssistedFromProps,
	}
)

// Register makes a factory available under typ, replacing any previous one.
// Type names are case-insensitive.
func Register(typ string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToUpper(typ)] = factory
}

// New builds an encryptor of the registered type typ.
func New(typ string, props Props) (Encryptor, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToUpper(strings.TrimSpace(typ))]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return factory(props)
}

// Types returns the registered type names, sorted alphabetically.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for typ := range registry {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// get returns the trimmed property value for key.
func (p Props) get(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// require returns the property value for key or ErrMissingProperty.
func (p Props) require(key string) (string, error) {
	v, ok := p.get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	return v, nil
}
