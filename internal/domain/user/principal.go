package user

import "slices"

// Principal is the authenticated caller as asserted by a verified access token.
type Principal struct {
	UserID          string
	Email           string
	OrganizationIDs []string
	IsAdmin         bool
}

// IsStaffOf reports whether the principal works for the given organization.
func (p Principal) IsStaffOf(organizationID string) bool {
	if organizationID == "" {
		return false
	}
	return slices.Contains(p.OrganizationIDs, organizationID)
}

// CanManage is true for platform administrators and for staff of the owning
// organization. A nil organization means the event is league-run: admins only.
func (p Principal) CanManage(organizationID *string) bool {
	if p.IsAdmin {
		return true
	}
	if organizationID == nil {
		return false
	}
	return p.IsStaffOf(*organizationID)
}
