package domain

import (
	"fmt"
	"slices"
)

// Scope is the set of elder profile ids a caller may read or write
type Scope struct {
	elderIDs []int64
}

// NewScope builds a scope from elder profile ids
func NewScope(elderIDs ...int64) Scope {
	ids := make([]int64, len(elderIDs))
	copy(ids, elderIDs)
	return Scope{elderIDs: ids}
}

// IDs returns a copy of the elder profile ids in scope
func (s Scope) IDs() []int64 {
	ids := make([]int64, len(s.elderIDs))
	copy(ids, s.elderIDs)
	return ids
}

// Contains reports whether elderID is inside the scope
func (s Scope) Contains(elderID int64) bool {
	return slices.Contains(s.elderIDs, elderID)
}

// Caller is the resolved identity behind an authenticated request.
// The two implementations, ElderCaller and CaretakerCaller, are the only
// variants; the unexported marker method keeps the set closed.
type Caller interface {
	UserID() int64
	Role() Role
	Name() string
	ResolvedScope() Scope
	caller()
}

// ElderCaller is an elder acting on its own profile
type ElderCaller struct {
	ID          int64
	FullName    string
	ElderID     int64
	CaretakerID *int64
}

func (c ElderCaller) UserID() int64        { return c.ID }
func (c ElderCaller) Role() Role           { return RoleElder }
func (c ElderCaller) Name() string         { return c.FullName }
func (c ElderCaller) ResolvedScope() Scope { return NewScope(c.ElderID) }
func (ElderCaller) caller()                {}

// CaretakerCaller is a caretaker acting on its linked elders
type CaretakerCaller struct {
	ID       int64
	FullName string
	ElderIDs []int64
}

func (c CaretakerCaller) UserID() int64        { return c.ID }
func (c CaretakerCaller) Role() Role           { return RoleCaretaker }
func (c CaretakerCaller) Name() string         { return c.FullName }
func (c CaretakerCaller) ResolvedScope() Scope { return NewScope(c.ElderIDs...) }
func (CaretakerCaller) caller()                {}

// TargetElder picks the elder profile a create operation writes to.
// Elders always write to their own profile and requested is ignored.
// Caretakers must name an elder that is linked to them.
func TargetElder(c Caller, requested *int64) (int64, error) {
	switch v := c.(type) {
	case ElderCaller:
		return v.ElderID, nil
	case CaretakerCaller:
		if requested == nil || *requested == 0 {
			return 0, fmt.Errorf("%w: elder_id is required", ErrValidation)
		}
		if !v.ResolvedScope().Contains(*requested) {
			return 0, fmt.Errorf("%w: elder profile not found", ErrNotFound)
		}
		return *requested, nil
	default:
		return 0, fmt.Errorf("%w: unsupported caller", ErrInvalidRole)
	}
}

// ReadScope returns the elder ids a read operation filters by.
// A non-nil requested id narrows the caller's scope to that elder and must be
// part of it.
func ReadScope(c Caller, requested *int64) ([]int64, error) {
	scope := c.ResolvedScope()
	if _, isElder := c.(ElderCaller); isElder || requested == nil {
		return scope.IDs(), nil
	}
	if !scope.Contains(*requested) {
		return nil, fmt.Errorf("%w: elder profile not found", ErrNotFound)
	}
	return []int64{*requested}, nil
}

// CheckScope verifies that a record owned by elderID is visible to c
func CheckScope(c Caller, elderID int64, what string) error {
	if !c.ResolvedScope().Contains(elderID) {
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	}
	return nil
}
