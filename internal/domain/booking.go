package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// Breakdown is the checkout price split, all amounts in minor units of Currency.
type Breakdown struct {
	Currency   string `json:"currency"`
	Base       int64  `json:"base"`
	Tax        int64  `json:"tax"`
	ServiceFee int64  `json:"serviceFee"`
	Total      int64  `json:"total"`
}

// FlightBooking is a persisted flight reservation. Reference is always issued
// by this service; PNR only ever comes from the GDS and may be empty.
type FlightBooking struct {
	ID          int64
	Reference   string
	PNR         string
	GDSOrderID  string
	Status      BookingStatus
	Verified    bool
	Offer       FlightOffer
	Passengers  []Passenger
	Contact     Contact
	Destination string
	Pricing     Breakdown
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
