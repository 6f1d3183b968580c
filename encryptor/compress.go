package encryptor

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	defaultCompressionThreshold = 1024 // 1KB
	minCompressionSavings       = 0.10

	// maxDecompressedSize caps decompression output at 64MB.
	maxDecompressedSize = 64 * 1024 * 1024
)

const (
	compressionZstd = "zstd"
	compressionNone = "none"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

// initZstd initializes the shared zstd encoder and decoder once.
func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// maybeCompress compresses data when it is at least threshold bytes long
// and zstd saves at least 10%. It returns the payload and its flag byte.
func maybeCompress(data []byte, threshold int, algorithm string) ([]byte, byte) {
	if algorithm != compressionZstd || len(data) < threshold {
		return data, flagNoCompression
	}

	encoder, _, err := initZstd()
	if err != nil {
		return data, flagNoCompression
	}
	compressed := encoder.EncodeAll(data, nil)

	savings := float64(len(data)-len(compressed)) / float64(len(data))
	if savings < minCompressionSavings {
		return data, flagNoCompression
	}
	return compressed, flagZstd
}

// decompress reverses maybeCompress based on the flag byte.
func decompress(data []byte, flag byte) ([]byte, error) {
	switch flag {
	case flagNoCompression:
		return data, nil
	case flagZstd:
		_, decoder, err := initZstd()
		if err != nil {
			return nil, err
		}
		result, err := decoder.DecodeAll(data, nil)
		if err != nil || len(result) > maxDecompressedSize {
			return nil, ErrDecompressionFailed
		}
		return result, nil
	default:
		return nil, ErrInvalidFormat
	}
}
