package cart

import "time"

// Entry is an apartment a user has put in their cart. Price is in major
// currency units.
type Entry struct {
	ID          string
	OwnerEmail  string
	ApartmentID string
	Floor       int
	Block       string
	ApartmentNo string
	Price       float64
	CreatedAt   time.Time
}
