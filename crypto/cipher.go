// Package crypto provides authenticated encryption for data that leaves the
// process, such as the context envelope sent ahead of a request.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// CKeySize is the cipher key size - AES-256
	CKeySize = 32
	// KeySize is the encryption key size
	KeySize = 64
	// GCMNonceSize is a GCM nonce size
	GCMNonceSize = 12
	// senderSize is the size allocated to prepend the sender ID
	senderSize = 4
)

var (
	// ErrEncrypt occurs when the encryption process fails. The reason of failure
	// is concealed for security reason
	ErrEncrypt = errors.New("crypto: encryption failed")
	// ErrDecrypt occurs when the decryption process fails.
	ErrDecrypt = errors.New("crypto: decryption failed")
)

// Encrypt secures a message using AES-GCM.
func Encrypt(key, message []byte) ([]byte, error) {
	gcm, err := buildGCM(key)
	if err != nil {
		return nil, ErrEncrypt
	}

	nonce, err := genRandBytes(GCMNonceSize)
	if err != nil {
		return nil, ErrEncrypt
	}

	// Seal appends the ciphertext to the nonce, so the nonce travels with
	// the message
	return gcm.Seal(nonce, nonce, message, nil), nil
}

// Decrypt recovers a message secured using AES-GCM.
func Decrypt(key, message []byte) ([]byte, error) {
	if len(message) <= GCMNonceSize {
		return nil, ErrDecrypt
	}

	gcm, err := buildGCM(key)
	if err != nil {
		return nil, ErrDecrypt
	}

	nonce := make([]byte, GCMNonceSize)
	copy(nonce, message)

	out, err := gcm.Open(nil, nonce, message[GCMNonceSize:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return out, nil
}

// Rotor is a encryption/decryption tool that supports key rotation.
// Each message carries the ID of the key that secured it, so peers can
// rotate keys without a flag day.
//
// Note: Data encrypted with Encrypt cannot be decrypted with Rotor
type Rotor struct {
	keys          map[uint32][]byte
	defaultSender uint32

	NonceSize int
}

// NewRotor creates a new Rotor with the given keys.
// The defaultSender will be used as the default sender ID during the
// encryption process
func NewRotor(keys map[uint32][]byte, defaultSender uint32) *Rotor {
	return &Rotor{
		keys:          keys,
		defaultSender: defaultSender,
		NonceSize:     GCMNonceSize,
	}
}

// Encrypt secures a message and prepends the default 4-byte sender ID to
// the message.
func (r *Rotor) Encrypt(message []byte) ([]byte, error) {
	return r.EncryptWithSender(message, r.defaultSender)
}

// EncryptWithSender secures a message and prepends the given 4-byte sender
// ID to the message.
func (r *Rotor) EncryptWithSender(message []byte, sender uint32) ([]byte, error) {
	key, ok := r.keys[sender]
	if !ok {
		return nil, ErrEncrypt
	}

	gcm, err := buildGCM(key)
	if err != nil {
		return nil, ErrEncrypt
	}

	nonce, err := genRandBytes(r.NonceSize)
	if err != nil {
		return nil, ErrEncrypt
	}

	buf := make([]byte, senderSize)
	binary.BigEndian.PutUint32(buf, sender)
	buf = append(buf, nonce...)

	// The sender ID is part of the authenticated data, so it cannot be
	// swapped to point to another key
	return gcm.Seal(buf, nonce, message, buf[:senderSize]), nil
}

// Decrypt takes an incoming message and uses the sender ID to
// retrieve the appropriate key. It then attempts to recover the message
// using that key.
func (r *Rotor) Decrypt(message []byte) ([]byte, error) {
	if len(message) <= r.NonceSize+senderSize {
		return nil, ErrDecrypt
	}

	sender := binary.BigEndian.Uint32(message[:senderSize])
	key, ok := r.keys[sender]
	if !ok {
		return nil, ErrDecrypt
	}

	gcm, err := buildGCM(key)
	if err != nil {
		return nil, ErrDecrypt
	}

	nonce := make([]byte, r.NonceSize)
	copy(nonce, message[senderSize:])

	out, err := gcm.Open(
		nil,
		nonce,
		message[senderSize+r.NonceSize:],
		message[:senderSize],
	)
	if err != nil {
		return nil, ErrDecrypt
	}
	return out, nil
}

func buildGCM(key []byte) (cipher.AEAD, error) {
	c, err := aes.NewCipher(key[:CKeySize])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(c)
}

func genRandBytes(l int) ([]byte, error) {
	b := make([]byte, l)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(err, "rand error")
	}
	return b, nil
}
