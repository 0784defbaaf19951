// Package codec encrypts Temporal payloads so workflow history never holds
// customer names or email addresses in clear text.
package codec

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"google.golang.org/protobuf/proto"
)

const (
	// MetadataEncodingEncrypted marks a payload sealed by Codec
	MetadataEncodingEncrypted = "binary/encrypted"
	// MetadataEncryptionKeyID names the derived key that sealed a payload
	MetadataEncryptionKeyID = "encryption-key-id"

	// KeySize is the length of the master key
	KeySize = 32
)

var hkdfInfoPayload = []byte("warranty-registration.payload.v1")

// ErrKeySize is returned for a master key that is not KeySize bytes
var ErrKeySize = fmt.Errorf("encryption key must be %d bytes", KeySize)

// Codec seals payloads with XChaCha20-Poly1305 under a key derived from the
// master key with HKDF-SHA256
type Codec struct {
	keyID string
	key   []byte
}

// NewCodec derives the payload key from masterKey
func NewCodec(masterKey []byte) (*Codec, error) {
	if len(masterKey) != KeySize {
		return nil, fmt.Errorf("%w, got %d", ErrKeySize, len(masterKey))
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, hkdfInfoPayload), key); err != nil {
		return nil, fmt.Errorf("failed to derive payload key: %w", err)
	}

	// the id lets a reader tell which master key sealed a payload without revealing it
	sum := sha256.Sum256(key)
	return &Codec{
		keyID: fmt.Sprintf("%x", sum[:8]),
		key:   key,
	}, nil
}

// KeyID identifies the derived key
func (c *Codec) KeyID() string {
	return c.keyID
}

// Encode implements converter.PayloadCodec
func (c *Codec) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		origBytes, err := proto.Marshal(p)
		if err != nil {
			return payloads, fmt.Errorf("failed to marshal payload: %w", err)
		}

		sealed, err := c.seal(origBytes)
		if err != nil {
			return payloads, err
		}

		result[i] = &commonpb.Payload{
			Metadata: map[string][]byte{
				converter.MetadataEncoding: []byte(MetadataEncodingEncrypted),
				MetadataEncryptionKeyID:    []byte(c.keyID),
			},
			Data: sealed,
		}
	}
	return result, nil
}

// Decode implements converter.PayloadCodec. Payloads that were not sealed
// are passed through.
func (c *Codec) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		if string(p.GetMetadata()[converter.MetadataEncoding]) != MetadataEncodingEncrypted {
			result[i] = p
			continue
		}
		if keyID := string(p.GetMetadata()[MetadataEncryptionKeyID]); keyID != c.keyID {
			return payloads, fmt.Errorf("payload sealed with unknown key %q", keyID)
		}

		opened, err := c.open(p.GetData())
		if err != nil {
			return payloads, err
		}

		decoded := &commonpb.Payload{}
		if err := proto.Unmarshal(opened, decoded); err != nil {
			return payloads, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		result[i] = decoded
	}
	return result, nil
}

func (c *Codec) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// output is nonce followed by ciphertext and tag
	return aead.Seal(nonce, nonce, plaintext, []byte(c.keyID)), nil
}

func (c *Codec) open(sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, errors.New("encrypted payload is too short")
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(c.keyID))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return plaintext, nil
}

// NewEncryptionDataConverter wraps the default data converter so every
// payload is encrypted with a key derived from masterKey
func NewEncryptionDataConverter(masterKey []byte) (converter.DataConverter, error) {
	c, err := NewCodec(masterKey)
	if err != nil {
		return nil, err
	}
	return converter.NewCodecDataConverter(converter.GetDefaultDataConverter(), c), nil
}
