package auth

import "earsip/internal/domain"

type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionBackup  Action = "backup"
	ActionRestore Action = "restore"
)

// Policy decides which roles may run which archive mutations.
type Policy struct {
	allowed map[Action]map[domain.Role]bool
}

// DefaultPolicy reserves every mutation and the system tools for administrators.
func DefaultPolicy() Policy {
	adminOnly := map[domain.Role]bool{domain.RoleAdministrator: true}
	return Policy{allowed: map[Action]map[domain.Role]bool{
		ActionCreate:  adminOnly,
		ActionUpdate:  adminOnly,
		ActionDelete:  adminOnly,
		ActionBackup:  adminOnly,
		ActionRestore: adminOnly,
	}}
}

func (p Policy) Allows(user domain.User, action Action) bool {
	return p.allowed[action][user.Role]
}
