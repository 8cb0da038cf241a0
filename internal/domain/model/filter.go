package model

const (
	// AnyStatus matches every task status in a TaskFilter.
	AnyStatus TaskStatus = "all"
	// AnyRole matches every role in a UserFilter.
	AnyRole Role = "all"
)

// TaskFilter holds the criteria applied to a displayed task collection.
// Empty Status is treated as AnyStatus; nil OwnerID matches every owner.
type TaskFilter struct {
	Text    string
	Status  TaskStatus
	OwnerID *int
}

// MatchesAnyStatus reports whether the status criterion is "all".
func (f TaskFilter) MatchesAnyStatus() bool {
	return f.Status == "" || f.Status == AnyStatus
}

// UserFilter holds the criteria applied to a displayed user collection.
// Empty Role is treated as AnyRole.
type UserFilter struct {
	Text string
	Role Role
}

// MatchesAnyRole reports whether the role criterion is "all".
func (f UserFilter) MatchesAnyRole() bool {
	return f.Role == "" || f.Role == AnyRole
}
