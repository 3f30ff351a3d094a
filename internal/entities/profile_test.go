package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	id := uuid.MustParse("5f0c7a2e-1b1d-4c3b-9a57-0d9b8e6f1a22")

	assert.Equal(t, "María Pérez", DisplayName(id, "  María Pérez ", "maria@antares.com"))
	assert.Equal(t, "maria", DisplayName(id, "Usuario", "maria@antares.com"))
	assert.Equal(t, "maria", DisplayName(id, "M", "maria@antares.com"))
	assert.Equal(t, "maria", DisplayName(id, "", "maria@antares.com"))
	assert.Equal(t, "5f0c7a2e", DisplayName(id, "", ""))
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleAssistant.IsStaff())
	assert.False(t, RoleEmployee.IsStaff())
	assert.False(t, RoleCustomer.IsStaff())
	assert.False(t, Role("root").Valid())
}

func TestTicketStatusIsClosedEnum(t *testing.T) {
	for _, s := range []TicketStatus{StatusOpen, StatusPending, StatusClosed} {
		assert.True(t, s.Valid())
	}
	assert.False(t, TicketStatus("resolved").Valid())
	assert.False(t, TicketStatus("").Valid())

	assert.Equal(t, "cerrado", StatusClosed.Label())
	assert.Equal(t, "pendiente", StatusPending.Label())
	assert.Equal(t, "abierto", StatusOpen.Label())
}
