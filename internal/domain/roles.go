package domain

import (
	"fmt"
	"slices"
)

func (s *Session) requireAdmin(callerId string) (*User, error) {
	caller, err := s.User(callerId)
	if err != nil {
		return nil, fmt.Errorf("caller: %w", err)
	}

	if !caller.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	return caller, nil
}

func (s Session) maxPrimaryOrder() int {
	maxOrder := 0
	for _, u := range s.Users {
		if order, ok := OrderOf(u.Role); ok && order > maxOrder {
			maxOrder = order
		}
	}

	return maxOrder
}

// closeOrderGap decrements every primary ordered after the removed order.
func (s *Session) closeOrderGap(removed int) {
	for i := range s.Users {
		if order, ok := OrderOf(s.Users[i].Role); ok && order > removed {
			s.Users[i].Role = Primary{Order: order - 1}
		}
	}
}

func PromoteToPrimary(s *Session, callerId, userId string) error {
	if _, err := s.requireAdmin(callerId); err != nil {
		return err
	}

	target, err := s.User(userId)
	if err != nil {
		return err
	}

	if _, ok := target.Role.(Secondary); !ok {
		return fmt.Errorf("%w: %s to %s", ErrInvalidRoleTransition, target.Role.Kind(), RoleKindPrimary)
	}

	target.Role = Primary{Order: s.maxPrimaryOrder() + 1}

	return nil
}

// PromoteToAdmin hands the admin role to a primary user. The former admin becomes the first
// primary and the remaining primaries keep their relative order.
func PromoteToAdmin(s *Session, callerId, userId string) error {
	admin, err := s.requireAdmin(callerId)
	if err != nil {
		return err
	}

	target, err := s.User(userId)
	if err != nil {
		return err
	}

	targetOrder, ok := OrderOf(target.Role)
	if !ok {
		return fmt.Errorf("%w: %s to %s", ErrInvalidRoleTransition, target.Role.Kind(), RoleKindAdmin)
	}

	for i := range s.Users {
		if order, ok := OrderOf(s.Users[i].Role); ok && order < targetOrder {
			s.Users[i].Role = Primary{Order: order + 1}
		}
	}

	target.Role = Admin{}
	admin.Role = Primary{Order: 1}

	return nil
}

func DemoteToSecondary(s *Session, callerId, userId string) error {
	if _, err := s.requireAdmin(callerId); err != nil {
		return err
	}

	target, err := s.User(userId)
	if err != nil {
		return err
	}

	order, ok := OrderOf(target.Role)
	if !ok {
		return fmt.Errorf("%w: %s to %s", ErrInvalidRoleTransition, target.Role.Kind(), RoleKindSecondary)
	}

	target.Role = Secondary{}
	s.closeOrderGap(order)

	return nil
}

// Leave removes userId from the roster. When the admin leaves, the lowest-order primary
// succeeds it; without one the session terminates and Leave reports it.
func Leave(s *Session, userId string) (terminated bool, err error) {
	leaving, err := s.User(userId)
	if err != nil {
		return false, err
	}

	switch role := leaving.Role.(type) {
	case Admin:
		successor := s.successor()
		if successor == nil {
			s.Users = nil
			return true, nil
		}

		successorOrder, _ := OrderOf(successor.Role)
		successor.Role = Admin{}
		s.closeOrderGap(successorOrder)
		s.removeUser(userId)
	case Primary:
		s.removeUser(userId)
		s.closeOrderGap(role.Order)
	default:
		s.removeUser(userId)
	}

	return len(s.Users) == 0, nil
}

func (s *Session) successor() *User {
	var next *User
	for i := range s.Users {
		order, ok := OrderOf(s.Users[i].Role)
		if !ok {
			continue
		}

		if next == nil {
			next = &s.Users[i]
			continue
		}

		if nextOrder, _ := OrderOf(next.Role); order < nextOrder {
			next = &s.Users[i]
		}
	}

	return next
}

// PrimaryUsers returns the admin followed by primaries in ascending order.
func PrimaryUsers(s Session) []User {
	var admin []User
	primaries := make([]User, 0, len(s.Users))
	for _, u := range s.Users {
		switch u.Role.(type) {
		case Admin:
			admin = append(admin, u)
		case Primary:
			primaries = append(primaries, u)
		}
	}

	slices.SortStableFunc(primaries, func(a, b User) int {
		ao, _ := OrderOf(a.Role)
		bo, _ := OrderOf(b.Role)
		return ao - bo
	})

	return append(admin, primaries...)
}

// SecondaryUsers returns secondaries in roster order.
func SecondaryUsers(s Session) []User {
	secondaries := make([]User, 0, len(s.Users))
	for _, u := range s.Users {
		if _, ok := u.Role.(Secondary); ok {
			secondaries = append(secondaries, u)
		}
	}

	return secondaries
}

// ValidateRoles checks that there is at most one admin and that primary orders are 1..n.
func ValidateRoles(users []User) error {
	admins := 0
	orders := make([]int, 0, len(users))
	for _, u := range users {
		switch role := u.Role.(type) {
		case Admin:
			admins++
		case Primary:
			orders = append(orders, role.Order)
		case Secondary:
		default:
			return fmt.Errorf("%w: user %s has no role", ErrInvalidRole, u.Id)
		}
	}

	if admins > 1 {
		return fmt.Errorf("%w: %d admins", ErrInvalidRole, admins)
	}

	slices.Sort(orders)
	for i, order := range orders {
		if order != i+1 {
			return fmt.Errorf("%w: primary orders %v are not dense", ErrInvalidRole, orders)
		}
	}

	return nil
}
