package database

import "time"

// User is a registry entry binding a Telegram user to an alarm group.
// A user belongs to at most one group; registering again replaces it.
type User struct {
	UserID      int64  `db:"user_id"`
	DisplayName string `db:"display_name"` // empty when Telegram gave us nothing to show
	GroupID     string `db:"group_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
