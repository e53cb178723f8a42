package service

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is the one-way credential digest collaborator. Verify is a
// constant-style comparison over the stored digest; nothing here can recover
// a plaintext.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, digest string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
