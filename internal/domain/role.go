package domain

import "fmt"

type RoleKind string

const (
	RoleKindAdmin     RoleKind = "admin"
	RoleKindPrimary   RoleKind = "primary"
	RoleKindSecondary RoleKind = "secondary"
)

// Role is one of Admin, Primary or Secondary. Only Primary carries a succession order.
type Role interface {
	Kind() RoleKind
	role()
}

type Admin struct{}

type Primary struct {
	// Order is 1-based; lower orders are promoted first when the admin leaves.
	Order int
}

type Secondary struct{}

func (Admin) Kind() RoleKind     { return RoleKindAdmin }
func (Primary) Kind() RoleKind   { return RoleKindPrimary }
func (Secondary) Kind() RoleKind { return RoleKindSecondary }

func (Admin) role()     {}
func (Primary) role()   {}
func (Secondary) role() {}

func ParseRole(kind string, order int) (Role, error) {
	switch RoleKind(kind) {
	case RoleKindAdmin:
		return Admin{}, nil
	case RoleKindPrimary:
		if order < 1 {
			return nil, fmt.Errorf("%w: primary order %d", ErrInvalidRole, order)
		}
		return Primary{Order: order}, nil
	case RoleKindSecondary:
		return Secondary{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, kind)
	}
}

// OrderOf returns the succession order of r and whether r is a primary role.
func OrderOf(r Role) (int, bool) {
	p, ok := r.(Primary)
	return p.Order, ok
}

func CanControlPlayback(r Role) bool {
	switch r.(type) {
	case Admin, Primary:
		return true
	default:
		return false
	}
}
