package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost — стоимость bcrypt для всех хэшей паролей.
const PasswordCost = 10

// maxPasswordBytes — bcrypt учитывает только первые 72 байта.
const maxPasswordBytes = 72

const tempPasswordLen = 12

const (
	lowerChars  = "abcdefghijkmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars  = "23456789"
	symbolChars = "!@#$%^&*-_=+?"
)

// HashPassword хэширует пароль bcrypt с PasswordCost.
func HashPassword(password string) (string, error) {
	const op = "service.password.HashPassword"

	if err := validatePassword(password); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// CheckPassword сравнивает пароль с хэшем.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateTempPassword возвращает случайный пароль из 12 символов:
// минимум по одной строчной, заглавной, цифре и спецсимволу.
// Неоднозначные символы (l, I, O, 0, 1) не используются.
func GenerateTempPassword() (string, error) {
	const op = "service.password.GenerateTempPassword"

	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	all := lowerChars + upperChars + digitChars + symbolChars

	buf := make([]byte, 0, tempPasswordLen)
	for _, set := range classes {
		c, err := randChar(set)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf = append(buf, c)
	}

	for len(buf) < tempPasswordLen {
		c, err := randChar(all)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf = append(buf, c)
	}

	// Fisher–Yates, чтобы обязательные символы не стояли в начале.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func validatePassword(pw string) error {
	if len(pw) == 0 {
		return ErrEmptyPassword
	}

	if len(pw) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	return nil
}

func randChar(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}

	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}

	return int(v.Int64()), nil
}
