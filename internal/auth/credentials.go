package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indicates the supplied password does not match the
// stored credential.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// CredentialVerifier checks a supplied password against the credential stored
// on the intern record. The store depends on this interface only, so the
// comparison scheme can be swapped without touching the rest of the portal.
type CredentialVerifier interface {
	Verify(stored, supplied string) error
}

// PlaintextVerifier compares the stored password and the supplied one
// byte-for-byte. This is the documented portal contract: intern passwords are
// stored and compared in the clear.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Verify(stored, supplied string) error {
	if stored == "" || stored != supplied {
		return ErrInvalidCredentials
	}
	return nil
}

// BcryptVerifier treats the stored credential as a bcrypt hash. Deployments
// that migrate intern records to hashed passwords inject this instead of
// PlaintextVerifier.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(stored, supplied string) error {
	if stored == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword hashes a plaintext password for storage alongside
// BcryptVerifier.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
