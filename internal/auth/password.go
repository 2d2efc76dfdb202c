package auth

import "golang.org/x/crypto/bcrypt"

// HashCredential hashes the shared admin credential with the configured cost.
// Used by the hashpw helper command to produce AUTH_ADMIN_PASSWORD_HASH.
func HashCredential(plain string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyCredential checks a login attempt against the stored hash.
func VerifyCredential(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
