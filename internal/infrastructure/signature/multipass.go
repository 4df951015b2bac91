package signature

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var errMultipassToken = errors.New("invalid multipass token")

// Multipass encodes customer data into Shopify Multipass login tokens.
// SHA-256 of the secret yields a 16 byte AES key followed by a 16 byte HMAC key.
type Multipass struct {
	encryptionKey []byte
	signatureKey  []byte
	rand          io.Reader
	now           func() time.Time
}

// NewMultipass derives the keys from the shop's Multipass secret
func NewMultipass(secret string) *Multipass {
	sum := sha256.Sum256([]byte(secret))
	return &Multipass{
		encryptionKey: sum[:aes.BlockSize],
		signatureKey:  sum[aes.BlockSize:],
		rand:          rand.Reader,
		now:           time.Now,
	}
}

// Encode builds base64url(iv || ciphertext || hmac) for the customer payload.
// created_at is added when absent.
func (m *Multipass) Encode(customer map[string]interface{}) (string, error) {
	payload := make(map[string]interface{}, len(customer)+1)
	for k, v := range customer {
		payload[k] = v
	}
	if _, ok := payload["created_at"]; !ok {
		payload["created_at"] = m.now().UTC().Format(time.RFC3339)
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal multipass payload: %w", err)
	}

	block, err := aes.NewCipher(m.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(m.rand, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	signed := append(iv, ciphertext...)
	mac := hmac.New(sha256.New, m.signatureKey)
	mac.Write(signed)

	return base64.URLEncoding.EncodeToString(append(signed, mac.Sum(nil)...)), nil
}

// Decode verifies and decrypts a token produced by Encode
func (m *Multipass) Decode(token string) (map[string]interface{}, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMultipassToken, err)
	}
	if len(raw) < 2*aes.BlockSize+sha256.Size {
		return nil, errMultipassToken
	}

	signed, sig := raw[:len(raw)-sha256.Size], raw[len(raw)-sha256.Size:]
	mac := hmac.New(sha256.New, m.signatureKey)
	mac.Write(signed)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, fmt.Errorf("%w: signature mismatch", errMultipassToken)
	}

	iv, ciphertext := signed[:aes.BlockSize], signed[aes.BlockSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errMultipassToken
	}

	block, err := aes.NewCipher(m.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal multipass payload: %w", err)
	}
	return payload, nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errMultipassToken
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: bad padding", errMultipassToken)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", errMultipassToken)
		}
	}
	return b[:len(b)-n], nil
}

// MultipassEncoder derives a Multipass per secret on each call
type MultipassEncoder struct{}

// Encode builds a token for customer with the given shop secret
func (MultipassEncoder) Encode(secret string, customer map[string]interface{}) (string, error) {
	return NewMultipass(secret).Encode(customer)
}
