package gds

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
)

// Upstream timestamps are local airport time without an offset.
const localLayout = "2006-01-02T15:04:05"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type wireEndpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type wireSegment struct {
	ID            string       `json:"id,omitempty"`
	Departure     wireEndpoint `json:"departure"`
	Arrival       wireEndpoint `json:"arrival"`
	CarrierCode   string       `json:"carrierCode"`
	Number        string       `json:"number,omitempty"`
	Duration      string       `json:"duration,omitempty"`
	NumberOfStops int          `json:"numberOfStops"`
}

type wireItinerary struct {
	Duration string        `json:"duration,omitempty"`
	Segments []wireSegment `json:"segments"`
}

type wireOffer struct {
	Type                   string          `json:"type"`
	ID                     string          `json:"id"`
	Source                 string          `json:"source,omitempty"`
	LastTicketingDate      string          `json:"lastTicketingDate,omitempty"`
	NumberOfBookableSeats  int             `json:"numberOfBookableSeats,omitempty"`
	Itineraries            []wireItinerary `json:"itineraries"`
	Price                  domain.Price    `json:"price"`
	ValidatingAirlineCodes []string        `json:"validatingAirlineCodes,omitempty"`
}

type searchResponse struct {
	Data []json.RawMessage `json:"data"`
}

type pricingRequest struct {
	Data pricingRequestData `json:"data"`
}

type pricingRequestData struct {
	Type         string            `json:"type"`
	FlightOffers []json.RawMessage `json:"flightOffers"`
}

type pricingResponse struct {
	Data struct {
		FlightOffers []json.RawMessage `json:"flightOffers"`
	} `json:"data"`
}

type orderRequest struct {
	Data orderRequestData `json:"data"`
}

type orderRequestData struct {
	Type         string            `json:"type"`
	FlightOffers []json.RawMessage `json:"flightOffers"`
	Travelers    []wireTraveler    `json:"travelers"`
}

type wireTraveler struct {
	ID          string         `json:"id"`
	DateOfBirth string         `json:"dateOfBirth"`
	Name        wireName       `json:"name"`
	Gender      string         `json:"gender"`
	Contact     *wireContact   `json:"contact,omitempty"`
	Documents   []wireDocument `json:"documents,omitempty"`
}

type wireName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type wireContact struct {
	EmailAddress string      `json:"emailAddress"`
	Phones       []wirePhone `json:"phones,omitempty"`
}

type wirePhone struct {
	DeviceType         string `json:"deviceType"`
	CountryCallingCode string `json:"countryCallingCode,omitempty"`
	Number             string `json:"number"`
}

type wireDocument struct {
	DocumentType    string `json:"documentType"`
	Number          string `json:"number"`
	ExpiryDate      string `json:"expiryDate,omitempty"`
	IssuanceCountry string `json:"issuanceCountry,omitempty"`
	Nationality     string `json:"nationality,omitempty"`
	Holder          bool   `json:"holder"`
}

type orderResponse struct {
	Data struct {
		ID                string `json:"id"`
		AssociatedRecords []struct {
			Reference string `json:"reference"`
		} `json:"associatedRecords"`
	} `json:"data"`
}

type errorResponse struct {
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func decodeOffer(raw json.RawMessage) (domain.FlightOffer, error) {
	var w wireOffer
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.FlightOffer{}, fmt.Errorf("decode offer: %w", err)
	}

	offer := domain.FlightOffer{
		ID:                     w.ID,
		Source:                 domain.OfferSourceLive,
		Price:                  w.Price,
		NumberOfBookableSeats:  w.NumberOfBookableSeats,
		ValidatingAirlineCodes: w.ValidatingAirlineCodes,
		LastTicketingDate:      w.LastTicketingDate,
		Raw:                    append(json.RawMessage(nil), raw...),
	}
	for _, it := range w.Itineraries {
		itinerary := domain.Itinerary{Duration: it.Duration}
		for _, s := range it.Segments {
			dep, err := parseLocal(s.Departure.At)
			if err != nil {
				return domain.FlightOffer{}, err
			}
			arr, err := parseLocal(s.Arrival.At)
			if err != nil {
				return domain.FlightOffer{}, err
			}
			itinerary.Segments = append(itinerary.Segments, domain.Segment{
				ID:            s.ID,
				Departure:     domain.Endpoint{IATACode: s.Departure.IATACode, Terminal: s.Departure.Terminal, At: dep},
				Arrival:       domain.Endpoint{IATACode: s.Arrival.IATACode, Terminal: s.Arrival.Terminal, At: arr},
				CarrierCode:   s.CarrierCode,
				Number:        s.Number,
				Duration:      s.Duration,
				NumberOfStops: s.NumberOfStops,
			})
		}
		offer.Itineraries = append(offer.Itineraries, itinerary)
	}
	return offer, nil
}

// encodeOffer prefers the untouched upstream payload; offers that lost it
// are rebuilt from the domain fields.
func encodeOffer(offer domain.FlightOffer) (json.RawMessage, error) {
	if len(offer.Raw) > 0 {
		return offer.Raw, nil
	}

	w := wireOffer{
		Type:                   "flight-offer",
		ID:                     offer.ID,
		Source:                 "GDS",
		LastTicketingDate:      offer.LastTicketingDate,
		NumberOfBookableSeats:  offer.NumberOfBookableSeats,
		Price:                  offer.Price,
		ValidatingAirlineCodes: offer.ValidatingAirlineCodes,
	}
	for _, it := range offer.Itineraries {
		wi := wireItinerary{Duration: it.Duration}
		for _, s := range it.Segments {
			wi.Segments = append(wi.Segments, wireSegment{
				ID:            s.ID,
				Departure:     wireEndpoint{IATACode: s.Departure.IATACode, Terminal: s.Departure.Terminal, At: s.Departure.At.Format(localLayout)},
				Arrival:       wireEndpoint{IATACode: s.Arrival.IATACode, Terminal: s.Arrival.Terminal, At: s.Arrival.At.Format(localLayout)},
				CarrierCode:   s.CarrierCode,
				Number:        s.Number,
				Duration:      s.Duration,
				NumberOfStops: s.NumberOfStops,
			})
		}
		w.Itineraries = append(w.Itineraries, wi)
	}
	return json.Marshal(w)
}

func encodeTravelers(passengers []domain.Passenger, contact domain.Contact) []wireTraveler {
	travelers := make([]wireTraveler, 0, len(passengers))
	for i, p := range passengers {
		t := wireTraveler{
			ID:          fmt.Sprintf("%d", i+1),
			DateOfBirth: p.DateOfBirth,
			Name:        wireName{FirstName: p.FirstName, LastName: p.LastName},
			Gender:      string(p.Gender),
		}
		if i == 0 {
			t.Contact = &wireContact{
				EmailAddress: contact.Email,
				Phones:       []wirePhone{{DeviceType: "MOBILE", Number: contact.Phone}},
			}
		}
		if p.PassportNumber != "" {
			t.Documents = []wireDocument{{
				DocumentType:    "PASSPORT",
				Number:          p.PassportNumber,
				ExpiryDate:      p.PassportExpiry,
				IssuanceCountry: p.PassportCountry,
				Nationality:     p.Nationality,
				Holder:          true,
			}}
		}
		travelers = append(travelers, t)
	}
	return travelers
}

func parseLocal(s string) (time.Time, error) {
	if t, err := time.Parse(localLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
