package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the bcrypt work factor used for all password hashes.
const BcryptCost = 10

// HashPassword derives a salted bcrypt hash from a plaintext password.
// The plaintext is never recoverable from the result.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// hash. bcrypt re-derives and compares internally, so no plaintext is ever
// reconstructed from the hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
