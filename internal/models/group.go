package models

// Group represents a set of people who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Lisbon Trip").
	Name string

	// CreatedBy is the user ID of the group creator. The creator is always
	// added as an admin member on creation.
	CreatedBy string

	// TripID optionally links the group to a trip. Empty when unset.
	TripID string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// MemberRole is a member's permission level within a group.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// MemberStatus tracks the invite lifecycle of a member.
// Transitions: invited -> joined (accept) or invited -> rejected (reject).
// joined is terminal until the group is deleted.
type MemberStatus string

const (
	MemberInvited  MemberStatus = "invited"
	MemberJoined   MemberStatus = "joined"
	MemberRejected MemberStatus = "rejected"
)

// Member is one user's participation record in a group.
type Member struct {
	GroupID string
	UserID  string
	Role    MemberRole
	Status  MemberStatus

	// CreatedAt is the Unix timestamp when the member row was created
	// (group creation or invite time).
	CreatedAt int64
}
