package listing

import "time"

// Apartment is a rentable unit shown on the public listing.
type Apartment struct {
	ID          string
	ImageURL    string
	Floor       int
	Block       string
	ApartmentNo string
	Rent        float64
	CreatedAt   time.Time
}

// Announcement is a notice published by an admin to all residents.
type Announcement struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time
}
