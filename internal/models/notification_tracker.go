package models

import "time"

// NotificationTracker stores the per-user high-water mark of the notifications
// page. A nil ActivityLastSeen means the user has never opened it.
type NotificationTracker struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	UserID           uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	ActivityLastSeen *time.Time `json:"activity_last_seen"`
}

func (t *NotificationTracker) NeverSeen() bool {
	return t == nil || t.ActivityLastSeen == nil
}

// IsNewer reports whether an event created at ts is newer than the cursor.
// Everything is new for a user who has never opened the page.
func (t *NotificationTracker) IsNewer(ts time.Time) bool {
	if t.NeverSeen() {
		return true
	}
	return ts.After(*t.ActivityLastSeen)
}
