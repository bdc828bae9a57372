package tuya

import (
	"crypto/aes"
	"errors"
	"fmt"
)

var ErrBadCiphertext = errors.New("tuya: ciphertext is not a multiple of the block size")

// The local protocol encrypts every block independently (ECB) with the
// device local key and PKCS7 padding.

func encryptECB(key, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tuya: init cipher: %w", err)
	}

	padLen := aes.BlockSize - len(plain)%aes.BlockSize
	padded := make([]byte, len(plain)+padLen)
	copy(padded, plain)
	for i := len(plain); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], padded[i:i+aes.BlockSize])
	}
	return out, nil
}

func decryptECB(key, data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrBadCiphertext
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tuya: init cipher: %w", err)
	}

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}

	// Lenient unpad: firmware has been seen sending zero padding.
	padLen := int(out[len(out)-1])
	if padLen > 0 && padLen <= aes.BlockSize {
		out = out[:len(out)-padLen]
	}
	return out, nil
}
