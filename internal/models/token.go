package models

import "time"

// IssuedToken — подписанный токен и момент его истечения (UTC).
// ExpiresAt используется и как значение expires у соответствующей cookie.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenPair — пара токенов, выдаваемая при входе и ротации.
//
// Описание:
//   - Access — короткоживущий JWT для доступа к API;
//   - Refresh — долгоживущий JWT, действителен пока совпадает с записью
//     в кэше токенов по id пользователя.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
