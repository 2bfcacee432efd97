package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// signer подписывает значения cookie по HMAC-SHA256.
type signer struct {
	secretKey []byte
}

func newSigner(secret string) *signer {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &signer{secretKey: key}
}

// sign возвращает значение в виде "<base64(value)>.<hex(hmac)>".
func (s *signer) sign(name, value string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value))
	return encoded + "." + s.mac(name, encoded)
}

// verify проверяет подпись и возвращает исходное значение.
func (s *signer) verify(name, signed string) (string, bool) {
	encoded, signature, found := strings.Cut(signed, ".")
	if !found {
		return "", false
	}

	if !hmac.Equal([]byte(signature), []byte(s.mac(name, encoded))) {
		return "", false
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}

	return string(raw), true
}

// Имя cookie входит в подпись, поэтому значение нельзя переставить в другой cookie.
func (s *signer) mac(name, encoded string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
