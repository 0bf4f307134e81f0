package entity

// Permission is a bitmask of the grants a user profile holds.
type Permission int64

const (
	// PermissionAdministrator implies every other permission.
	// Every mutation of the status workflow (catalog, history, bulk) requires it.
	PermissionAdministrator Permission = 1 << iota

	// PermissionViewCases allows reading cases, their status history and the catalog.
	PermissionViewCases

	// PermissionManageCases allows registering people, individual and collective processes.
	// It does NOT grant the ability to change a case status.
	PermissionManageCases

	// PermissionViewActivity allows reading the activity log.
	PermissionViewActivity
)

// Has reports whether every bit of target is set. Administrator is not special here.
func (p Permission) Has(target Permission) bool {
	return (p & target) == target
}

// HasEffective is Has with the Administrator bypass.
func (p Permission) HasEffective(target Permission) bool {
	return p.Has(PermissionAdministrator) || p.Has(target)
}
