package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor for every stored password hash.
const BcryptCost = 12

// PasswordHasher hashes and checks passwords with bcrypt.
type PasswordHasher struct {
	Cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{Cost: BcryptCost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether password matches hash. A malformed hash counts as
// a mismatch.
func (h *PasswordHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
