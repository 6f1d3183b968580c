package encryptor

import "errors"

var (
	// ErrUnknownType indicates no factory is registered for the encryptor type.
	ErrUnknownType = errors.New("encryptor: unknown encryptor type")

	// ErrMissingProperty indicates a required encryptor property is absent.
	ErrMissingProperty = errors.New("encryptor: missing property")

	// ErrInvalidProperty indicates an encryptor property has an unusable value.
	ErrInvalidProperty = errors.New("encryptor: invalid property")

	// ErrInvalidKeySize indicates the master key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.New("encryptor: key must be 32 bytes")

	// ErrInvalidKeyID indicates the key ID is empty or longer than 255 bytes.
	ErrInvalidKeyID = errors.New("encryptor: key ID must be 1-255 bytes")

	// ErrDecryptionFailed indicates secretbox authentication failed (wrong key or corrupted data).
	ErrDecryptionFailed = errors.New("encryptor: decryption failed")

	// ErrKeyIDMismatch indicates the ciphertext was sealed under another key ID.
	ErrKeyIDMismatch = errors.New("encryptor: key_id mismatch")

	// ErrDecompressionFailed indicates zstd decompression failed or exceeded the size cap.
	ErrDecompressionFailed = errors.New("encryptor: decompression failed")

	// ErrInvalidFormat indicates the ciphertext format is malformed.
	ErrInvalidFormat = errors.New("encryptor: invalid ciphertext format")

	// ErrUnsupportedCompression indicates an unsupported compression algorithm.
	ErrUnsupportedCompression = errors.New("encryptor: unsupported compression algorithm")
)
