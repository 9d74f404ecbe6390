package authorize

import (
	"context"
	"log/slog"
)

// PermissionPolicy is one "p" row of the access model.
type PermissionPolicy struct {
	Subject Role
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}

// DefaultPolicies is the baseline capability table.
//
// Participant and ownership rules (only the mentor party may confirm, only the
// slot owner may edit) are record-level and live in the services.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		// Students book and manage their own appointments.
		{RoleStudent, ResourceAppointment, ActionCreate, EffectAllow},
		{RoleStudent, ResourceAppointment, ActionRead, EffectAllow},
		{RoleStudent, ResourceAppointment, ActionList, EffectAllow},
		{RoleStudent, ResourceAppointment, ActionCancel, EffectAllow},
		{RoleStudent, ResourceAvailability, ActionRead, EffectAllow},

		// Mentors publish availability and drive the appointment lifecycle.
		{RoleMentor, ResourceAppointment, ActionRead, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionList, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionConfirm, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionCancel, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionComplete, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleMentor, ResourceAvailability, ActionRead, EffectAllow},
		{RoleMentor, ResourceAvailability, ActionCreate, EffectAllow},
		{RoleMentor, ResourceAvailability, ActionUpdate, EffectAllow},
		{RoleMentor, ResourceAvailability, ActionDelete, EffectAllow},

		// Admins oversee appointments but never book them.
		{RoleAdmin, ResourceAppointment, WildcardAction, EffectAllow},
		{RoleAdmin, ResourceAppointment, ActionCreate, EffectDeny},
		{RoleAdmin, ResourceAvailability, ActionRead, EffectAllow},

		{RoleProfessor, ResourceAvailability, ActionRead, EffectAllow},
	}
}

// SeedDefaultPolicies writes DefaultPolicies. Existing rows are left alone.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	policies := DefaultPolicies()
	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action, "effect", p.Effect)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}
