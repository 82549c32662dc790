package hashing

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptProvider hashes passwords with bcrypt at the given cost.
type BcryptProvider struct {
	cost int
}

// NewBcryptProvider builds a BcryptProvider. A cost of 0 uses bcrypt's
// default cost.
func NewBcryptProvider(cost int) *BcryptProvider {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptProvider{cost: cost}
}

func (p *BcryptProvider) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hashing: bcrypt hash: %w", err)
	}
	return string(b), nil
}

func (p *BcryptProvider) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var _ Provider = (*BcryptProvider)(nil)
