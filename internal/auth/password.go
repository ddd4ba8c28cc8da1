package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted adaptive hash for the provided plaintext.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash. A
// mismatch is an ordinary false result, not an error; callers decide how to
// surface it. The plaintext is never logged.
func VerifyPassword(plain, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain)) == nil
}
