package domain

import (
	"time"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusAccepted  Status = "accepted"
	StatusExpired   Status = "expired"
)

// TTL is fixed: every listing expires two hours after creation.
const TTL = 2 * time.Hour

const (
	RoleHelper = "helper" // создаёт объявления
	RoleNGO    = "ngo"    // забирает
)

type Listing struct {
	ID           int64      `bson:"_id" json:"id"`
	Title        string     `bson:"title" json:"title"`
	Description  string     `bson:"description" json:"description"`
	Quantity     string     `bson:"quantity" json:"quantity"` // free text, e.g. "5 kg" / "20 meals"
	MobileNumber string     `bson:"mobile_number" json:"mobileNumber"`
	Locality     string     `bson:"locality" json:"locality"`
	City         string     `bson:"city" json:"city"`
	State        string     `bson:"state" json:"state"`
	Pincode      string     `bson:"pincode" json:"pincode"`
	CreatedBy    string     `bson:"created_by" json:"createdBy"`
	CreatorName  string     `bson:"creator_name" json:"creatorName"`
	Status       Status     `bson:"status" json:"status"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
	ExpiresAt    time.Time  `bson:"expires_at" json:"expiresAt"`
	AcceptedBy   string     `bson:"accepted_by,omitempty" json:"acceptedBy,omitempty"`
	AcceptorName string     `bson:"acceptor_name,omitempty" json:"acceptorName,omitempty"`
	AcceptedAt   *time.Time `bson:"accepted_at,omitempty" json:"acceptedAt,omitempty"`
}

// Expired is the single threshold test used by reads, accept and the sweeper.
// Keep it in one place so all paths agree on the boundary.
func (l *Listing) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now) // expiresAt <= now
}

type EventType string

const (
	EventListingAccepted EventType = "listing_accepted"
	EventListingExpired  EventType = "listing_expired"
)

// Event is what the hub fans out to connected subscribers.
type Event struct {
	Type    EventType `json:"type"`
	Listing Listing   `json:"listing"`
}
