package domain

import "slices"

// ApplicationScope describes the applications a user may see. The zero value
// matches nothing.
type ApplicationScope struct {
	// All lifts every restriction (admin, superuser).
	All bool
	// AgentIDs matches applications assigned to any of these agents.
	AgentIDs []string
	// CustomerID matches applications owned by this customer.
	CustomerID string
}

// Empty reports whether the scope can never match an application.
func (s ApplicationScope) Empty() bool {
	return !s.All && len(s.AgentIDs) == 0 && s.CustomerID == ""
}

// Allows is the predicate form of the scope.
func (s ApplicationScope) Allows(a *Application) bool {
	if s.All {
		return true
	}
	if a.AgentID != "" && slices.Contains(s.AgentIDs, a.AgentID) {
		return true
	}
	return s.CustomerID != "" && a.CustomerID == s.CustomerID
}
