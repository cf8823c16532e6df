package auth

import "fmt"

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Claims is the verified identity forwarded to handlers by the authorizer.
type Claims struct {
	TenantID string
	UserID   string
	Email    string
	Role     string
}

// ForbiddenError indicates an authenticated caller that policy denies.
type ForbiddenError struct {
	Action string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("not permitted to %s this resource", e.Action)
}

// CanPerform is the role policy: pure, total and side-effect free.
//
//	ADMIN:  everything.
//	MEMBER: create/read always; update only own resources; delete never.
//	anything else: nothing.
func CanPerform(role, action, resourceOwner, currentUser string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleMember:
		switch action {
		case ActionCreate, ActionRead:
			return true
		case ActionUpdate:
			return resourceOwner == currentUser
		default:
			return false
		}
	default:
		return false
	}
}
