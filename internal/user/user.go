package user

import "time"

// PlaceholderName is given to users created on first sight of their identity.
const PlaceholderName = "Customer"

// User maps an external identity (the token subject) to the internal id used by
// every cart and order record.
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
