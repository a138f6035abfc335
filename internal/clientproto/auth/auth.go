// Package auth implements the control socket's local-peer authentication:
// a PBKDF2-stretched shared key, an HMAC challenge/response handshake, and a
// ChaCha20-Poly1305 AEAD-framed connection wrapper for everything after it.
package auth

import (
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

const (
	AutoGenKeyLength = 16
	base62Chars      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	pbkdf2Iterations = 100000
	pbkdf2Salt       = "scc-daemon-key-v1"
)

// GenerateKey creates a random key for the daemon's key file, written with
// 0600 permissions on first run.
func GenerateKey() (string, error) {
	randomBytes := make([]byte, AutoGenKeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	key := make([]byte, AutoGenKeyLength)
	for i, b := range randomBytes {
		key[i] = base62Chars[int(b)%62]
	}
	return string(key), nil
}

// DeriveKey stretches the key-file contents into a 32-byte AEAD key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("auth: key must not be empty")
	}
	return pbkdf2.Key(sha256.New, password, []byte(pbkdf2Salt), pbkdf2Iterations, 32)
}
