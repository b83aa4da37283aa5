package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher abstracts the one-way password transform so the service
// can be tested without paying bcrypt cost in every test.
type PasswordHasher interface {
	Hash(plain string) ([]byte, error)
	// Verify reports whether plain matches hash. It must perform a real
	// comparison even when hash is empty so that login timing does not
	// reveal whether an account exists.
	Verify(hash []byte, plain string) bool
}

// BcryptHasher hashes passwords with bcrypt at a configurable cost.
type BcryptHasher struct {
	cost  int
	dummy []byte
}

// NewBcryptHasher creates a hasher with the given cost. The dummy hash
// used for missing accounts is precomputed here so the login path never
// skips a comparison.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("authgate-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to precompute dummy hash: %w", err)
	}
	return &BcryptHasher{cost: cost, dummy: dummy}, nil
}

func (h *BcryptHasher) Hash(plain string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func (h *BcryptHasher) Verify(hash []byte, plain string) bool {
	if len(hash) == 0 {
		// Burn a comparison against the dummy hash; the result is
		// discarded but the timing matches the real path.
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}
