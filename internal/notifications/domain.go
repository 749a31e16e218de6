package notifications

import "time"

// DefaultRetention is how long a read notification survives.
const DefaultRetention = 30 * 24 * time.Hour

const day = 24 * time.Hour

// Notification is a message addressed to one user. Only Read ever changes.
type Notification struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	RecipientID int64     `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// ExpiryPolicy decides when a read notification may be deleted. Age is
// counted in whole days: a notification is expired once it is read and its
// whole-day age exceeds the retention in days.
type ExpiryPolicy struct {
	Retention time.Duration
}

// Cutoff returns the latest creation time that is expired at now. Stores apply
// the policy as `read AND created_at <= cutoff`.
func (p ExpiryPolicy) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(p.retentionDays()+1) * day)
}

func (p ExpiryPolicy) retentionDays() int64 {
	r := p.Retention
	if r <= 0 {
		r = DefaultRetention
	}
	return int64(r / day)
}
