package utils

import "golang.org/x/crypto/bcrypt"

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

// HashPasswordWithCost is used by the seed SQL hash helper endpoint.
func HashPasswordWithCost(s string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), cost)
}

func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}
