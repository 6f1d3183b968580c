package encryptor

// Ciphertext format:
// [flag:1][keyIDLen:1][keyID:n][nonce:24][secretbox(payload)]
//
// Flag byte values:
//   0x00 = no compression
//   0x01 = zstd compressed

const (
	flagNoCompression byte = 0x00
	flagZstd          byte = 0x01

	nonceSize = 24
)

// formatCiphertext assembles the outer ciphertext.
func formatCiphertext(flag byte, keyID string, nonce [nonceSize]byte, box []byte) []byte {
	result := make([]byte, 0, 2+len(keyID)+nonceSize+len(box))
	result = append(result, flag, byte(len(keyID)))
	result = append(result, keyID...)
	result = append(result, nonce[:]...)
	return append(result, box...)
}

// parseCiphertext splits a ciphertext into its parts.
func parseCiphertext(data []byte) (flag byte, keyID string, nonce [nonceSize]byte, box []byte, err error) {
	// flag + keyIDLen + keyID(min 1) + nonce + at least one byte of box
	if len(data) < 1+1+1+nonceSize+1 {
		err = ErrInvalidFormat
		return
	}

	flag = data[0]
	keyIDLen := int(data[1])
	if keyIDLen == 0 {
		err = ErrInvalidFormat
		return
	}

	headerSize := 2 + keyIDLen + nonceSize
	if len(data) < headerSize+1 {
		err = ErrInvalidFormat
		return
	}

	keyID = string(data[2 : 2+keyIDLen])
	copy(nonce[:], data[2+keyIDLen:headerSize])
	box = data[headerSize:]
	return
}
