// redact маскирует чувствительные данные перед записью в лог.
package redact

import "strings"

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать ровно один '@', иначе возвращается "***";
//   - локальная часть заменяется на первые два символа (по рунам) + "***";
//   - если в локальной части не больше двух символов — "***@<domain>";
//   - домен возвращается без изменений.
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	return mask(s[:i]) + "@" + s[i+1:]
}

// Login маскирует идентификатор входа: e-mail или username.
func Login(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}

	return mask(s)
}

// Token возвращает литерал-заглушку для токена в логах.
func Token() string { return "[REDACTED_TOKEN]" }

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }

func mask(s string) string {
	r := []rune(s)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}
