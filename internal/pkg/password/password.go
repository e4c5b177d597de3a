package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a bcrypt hash at the default cost for storage in the
// users table.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports a non-nil error when plain does not match hash.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
