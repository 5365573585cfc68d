package models

import "time"

// UserRole represents the roles recognised by the scheduler.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleCoach  UserRole = "COACH"
	RoleMember UserRole = "MEMBER"
)

// CoachInfo carries the payment processor account of a coach.
type CoachInfo struct {
	StripeID string `db:"stripe_id" json:"stripeId"`
}

// User is the acting user's profile as read from the users table.
type User struct {
	Username         string     `db:"username" json:"username"`
	DisplayName      string     `db:"display_name" json:"displayName"`
	DojoCohort       string     `db:"dojo_cohort" json:"dojoCohort"`
	PreviousCohort   string     `db:"previous_cohort" json:"previousCohort"`
	TimezoneOverride string     `db:"timezone_override" json:"timezoneOverride"`
	Role             UserRole   `db:"role" json:"role"`
	CoachInfo        *CoachInfo `db:"-" json:"coachInfo,omitempty"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user may author Dojo-wide events.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsCoach reports whether the user may author coaching sessions.
func (u *User) IsCoach() bool {
	return u != nil && (u.Role == RoleCoach || u.Role == RoleAdmin)
}

// StripeID returns the coach's payment account, or an empty string.
func (u *User) StripeID() string {
	if u == nil || u.CoachInfo == nil {
		return ""
	}
	return u.CoachInfo.StripeID
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
