package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword runs the password through bcrypt at the given cost,
// embedding a fresh random salt in the output.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hashed), err
}

// CheckPassword reports whether password matches the stored hash.
// A malformed stored hash counts as a mismatch, never an error.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
