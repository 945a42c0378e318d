package domain

import "time"

type CheckoutStage string

const (
	StageSearch   CheckoutStage = "search"
	StageSelect   CheckoutStage = "select"
	StageCheckout CheckoutStage = "checkout"
	StageConfirm  CheckoutStage = "confirm"
)

var stageOrder = map[CheckoutStage]int{
	StageSearch:   0,
	StageSelect:   1,
	StageCheckout: 2,
	StageConfirm:  3,
}

// Before reports whether s comes strictly earlier in the flow than other.
func (s CheckoutStage) Before(other CheckoutStage) bool {
	return stageOrder[s] < stageOrder[other]
}

// CheckoutSession is the server-side state of one booking flow.
type CheckoutSession struct {
	ID          string        `json:"id"`
	Stage       CheckoutStage `json:"stage"`
	Offer       FlightOffer   `json:"flightOffer"`
	Verified    bool          `json:"verified"`
	Destination string        `json:"destination"`
	Pricing     Breakdown     `json:"totalPrice"`
	Passengers  []Passenger   `json:"passengers,omitempty"`
	Contact     *Contact      `json:"contacts,omitempty"`
	Reference   string        `json:"reference,omitempty"`
	PNR         string        `json:"pnr,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
