package users

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is the opaque hashing capability the directory
// delegates to. The stored form is never interpreted here.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt at default cost.
type BcryptHasher struct{}

var _ PasswordHasher = BcryptHasher{}

func (BcryptHasher) Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

func (BcryptHasher) Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
