package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// Box seals the persisted bearer token so the local store never holds it in
// plaintext. The key comes from PANEL_CREDENTIAL_KEY (base64, 32 bytes).
type Box struct {
	key [32]byte
}

func NewBox(base64Key string) (*Box, error) {
	if base64Key == "" {
		return nil, errors.New("missing PANEL_CREDENTIAL_KEY")
	}
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decode PANEL_CREDENTIAL_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("PANEL_CREDENTIAL_KEY must decode to 32 bytes, got %d", len(key))
	}
	b := &Box{}
	copy(b.key[:], key)
	return b, nil
}

func (b *Box) EncryptString(plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *Box) DecryptString(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < 24 {
		return "", errors.New("ciphertext too short")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &b.key)
	if !ok {
		return "", errors.New("credential ciphertext failed to open")
	}
	return string(plain), nil
}
