package api

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Password hashing and token generation are explicitly out of scope for
// this project's own collaborators; hashPassword/verifyPassword stand in
// for them with a salted SHA-256 digest. This is not a production-grade
// KDF (no iteration count, no memory hardness) and should not be mistaken
// for one - it exists so User.Password has something to store.
const hashPrefix = "sha256"

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return fmt.Sprintf("%s$%s$%s", hashPrefix, hex.EncodeToString(salt), digest(salt, password)), nil
}

func verifyPassword(encoded, password string) bool {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 || parts[0] != hashPrefix {
		return false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(digest(salt, password)), []byte(parts[2])) == 1
}

func digest(salt []byte, password string) string {
	sum := sha256.Sum256(append(salt, []byte(password)...))
	return hex.EncodeToString(sum[:])
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateToken builds a tk_<unix-seconds>_<24 random alphanumerics>
// token, matching the shape the original login handler produced.
func generateToken(now time.Time) (string, error) {
	b := make([]byte, 24)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return fmt.Sprintf("tk_%d_%s", now.Unix(), string(b)), nil
}
