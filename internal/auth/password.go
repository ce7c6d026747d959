package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash of the plaintext. A cost below the
// bcrypt minimum falls back to the library default, so a zero value from
// config never weakens hashing.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a plaintext candidate against a stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
