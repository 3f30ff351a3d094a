package entities

import (
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"

	"antares-helpdesk/pkg/types"
)

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleEmployee  Role = "employee"
	RoleAssistant Role = "assistant"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAssistant, RoleAdmin:
		return true
	}
	return false
}

// IsStaff - роли, которые обрабатывают тикеты.
func (r Role) IsStaff() bool {
	return r == RoleAssistant || r == RoleAdmin
}

// User - учётная запись (логин, пароль, подтверждение почты).
type User struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	FullName        string     `json:"full_name" db:"full_name"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty" db:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// Profile - профиль пользователя внутри helpdesk.
type Profile struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	FullName           string      `json:"full_name" db:"full_name"`
	Email              string      `json:"email" db:"email"`
	Role               Role        `json:"role" db:"role"`
	Department         null.String `json:"department" db:"department"`
	AssignedCategoryID *uint64     `json:"assigned_category_id" db:"assigned_category_id"`

	types.BaseEntity
}

func (p *Profile) DisplayName() string {
	return DisplayName(p.ID, p.FullName, p.Email)
}

func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{ID: p.ID, FullName: p.DisplayName(), Email: p.Email, Role: p.Role}
}

// ProfileSummary - краткая карточка для обогащения списков.
type ProfileSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

// DisplayName никогда не возвращает "Usuario" или пустую строку, если есть
// хоть какие-то данные о человеке.
func DisplayName(id uuid.UUID, fullName, email string) string {
	name := strings.TrimSpace(fullName)
	if name != "" && name != "Usuario" && len([]rune(name)) > 1 {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return id.String()[:8]
}
