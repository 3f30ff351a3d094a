package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost можно понизить в тестах.
var PasswordCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("хеширование пароля: %w", err)
	}
	return string(hash), nil
}

// ComparePasswords возвращает bcrypt.ErrMismatchedHashAndPassword, если пароль не подходит.
func ComparePasswords(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
