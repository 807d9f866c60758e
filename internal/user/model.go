package user

import "time"

type User struct {
	ID       int
	Email    string
	Password string
	Role     string
}

// Profile is the buyer-facing identity shown on the profile screen.
// One row per user; owner-only reads and writes.
type Profile struct {
	UserID    uint
	Name      *string
	Phone     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UpdateProfileParams struct {
	Name    *string
	Phone   *string
	Address *string
}
