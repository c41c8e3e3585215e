package utils

import "golang.org/x/crypto/bcrypt"

// HashPasscode returns the bcrypt hash of a pairing passcode.
func HashPasscode(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasscode compares a bcrypt hash with a plaintext passcode.
func CheckPasscode(hash, passcode string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
