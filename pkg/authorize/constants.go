package authorize

import (
	"fmt"
	"strings"
)

type (
	Role         string
	Resource     string
	Action       string
	PolicyEffect string
)

const (
	WildcardResource Resource = "*"
	WildcardAction   Action   = "*"
)

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Roles form a closed set. Anything else is rejected at the edge.
const (
	RoleStudent   Role = "STUDENT"
	RoleMentor    Role = "MENTOR"
	RoleProfessor Role = "PROFESSOR"
	RoleAdmin     Role = "ADMIN"
)

const (
	ResourceAppointment  Resource = "appointment"
	ResourceAvailability Resource = "availability"
)

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionList     Action = "list"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

var KnownRoles = map[Role]struct{}{
	RoleStudent:   {},
	RoleMentor:    {},
	RoleProfessor: {},
	RoleAdmin:     {},
}

var KnownResources = map[Resource]struct{}{
	ResourceAppointment:  {},
	ResourceAvailability: {},
}

var KnownActions = map[Action]struct{}{
	ActionCreate:   {},
	ActionRead:     {},
	ActionList:     {},
	ActionUpdate:   {},
	ActionDelete:   {},
	ActionConfirm:  {},
	ActionCancel:   {},
	ActionComplete: {},
}

func (r Role) Valid() bool {
	_, ok := KnownRoles[r]
	return ok
}

func (r Role) String() string { return string(r) }

// ParseRole accepts any casing ("mentor", "Mentor") and returns the canonical role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidArgs, s)
	}
	return r, nil
}
