package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for operator password hashes
const BcryptCost = 12

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePasswordStrength requires 8 to 100 characters
func ValidatePasswordStrength(password string) bool {
	return len(password) >= 8 && len(password) <= 100
}
