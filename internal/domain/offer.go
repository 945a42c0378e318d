package domain

import (
	"encoding/json"
	"time"
)

type OfferSource string

const (
	OfferSourceLive     OfferSource = "live"
	OfferSourceFallback OfferSource = "fallback"
)

type Price struct {
	Total    string `json:"total"`
	Base     string `json:"base,omitempty"`
	Currency string `json:"currency"`
}

type Endpoint struct {
	IATACode string    `json:"iataCode"`
	Terminal string    `json:"terminal,omitempty"`
	At       time.Time `json:"at"`
}

type Segment struct {
	ID            string   `json:"id,omitempty"`
	Departure     Endpoint `json:"departure"`
	Arrival       Endpoint `json:"arrival"`
	CarrierCode   string   `json:"carrierCode"`
	Number        string   `json:"number,omitempty"`
	Duration      string   `json:"duration"`
	NumberOfStops int      `json:"numberOfStops"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

// FlightOffer is a priced itinerary. Raw carries the upstream payload
// unchanged so pricing and ordering can echo it back.
type FlightOffer struct {
	ID                     string          `json:"id"`
	Source                 OfferSource     `json:"source"`
	Itineraries            []Itinerary     `json:"itineraries"`
	Price                  Price           `json:"price"`
	NumberOfBookableSeats  int             `json:"numberOfBookableSeats,omitempty"`
	ValidatingAirlineCodes []string        `json:"validatingAirlineCodes,omitempty"`
	LastTicketingDate      string          `json:"lastTicketingDate,omitempty"`
	Raw                    json.RawMessage `json:"raw,omitempty"`
}

// Route returns origin and final destination of the outbound itinerary.
func (o FlightOffer) Route() (string, string) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return "", ""
	}
	segs := o.Itineraries[0].Segments
	return segs[0].Departure.IATACode, segs[len(segs)-1].Arrival.IATACode
}

type SearchQuery struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate,omitempty"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children,omitempty"`
	Infants       int    `json:"infants,omitempty"`
	TravelClass   string `json:"travelClass,omitempty"`
	NonStop       bool   `json:"nonStop,omitempty"`
	Currency      string `json:"currencyCode,omitempty"`
	Max           int    `json:"max,omitempty"`
}

type SearchResult struct {
	Offers   []FlightOffer `json:"offers"`
	Source   OfferSource   `json:"source"`
	Currency string        `json:"currency"`
}
