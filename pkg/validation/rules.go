package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"antares-helpdesk/internal/entities"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	colorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"custom_email":      isGoodEmailFormat,
		"ticket_status":     isTicketStatus,
		"ticket_priority":   isTicketPriority,
		"user_role":         isUserRole,
		"category_type":     isCategoryType,
		"hexcolor_or_empty": isHexColorOrEmpty,
		"trimmed_min":       trimmedMin,
		"notblank":          isNotBlank,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

func isTicketStatus(fl validator.FieldLevel) bool {
	return entities.TicketStatus(fl.Field().String()).Valid()
}

func isTicketPriority(fl validator.FieldLevel) bool {
	return entities.TicketPriority(fl.Field().String()).Valid()
}

func isUserRole(fl validator.FieldLevel) bool {
	return entities.Role(fl.Field().String()).Valid()
}

func isCategoryType(fl validator.FieldLevel) bool {
	return entities.CategoryType(fl.Field().String()).Valid()
}

// isHexColorOrEmpty - "#abc" или "#aabbcc", пустое значение допустимо
func isHexColorOrEmpty(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || colorRegex.MatchString(s)
}

// trimmedMin - длина в символах после обрезки пробелов, параметр тега = минимум
func trimmedMin(fl validator.FieldLevel) bool {
	minLen := 0
	for _, r := range fl.Param() {
		if r < '0' || r > '9' {
			return false
		}
		minLen = minLen*10 + int(r-'0')
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minLen
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
