// Package auth hashes and verifies account passwords with bcrypt. Each hash
// carries its own random salt, so verification needs nothing but the hash.
package auth

import "golang.org/x/crypto/bcrypt"

// Hasher hashes passwords at a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, falling back to bcrypt.DefaultCost
// when cost is outside bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	return HashPassword(password, h.cost)
}

// Check reports whether password matches hash.
func (h *Hasher) Check(password, hash string) bool {
	return CheckPassword(password, hash)
}

// HashPassword hashes password at the given bcrypt cost.
func HashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash. Malformed hashes never match.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
