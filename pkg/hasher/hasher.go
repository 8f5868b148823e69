package hasher

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const cost = 10

var ErrEmptyKey = errors.New("api key must not be empty")

// HashKey returns the bcrypt hash to put in API_KEY_HASH.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	b, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	return string(b), err
}

func KeyCorrect(key, hash string) bool {
	if key == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// GenerateKey returns a url safe random key built from length random bytes.
func GenerateKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
