package gds

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
)

var fallbackCarriers = []struct {
	code   string
	number int
	hour   int
}{
	{"P4", 7120, 7},
	{"W3", 1340, 10},
	{"QI", 2205, 14},
	{"UR", 5011, 18},
}

// Fallback synthesizes a deterministic set of demo offers for q. They are
// always tagged fallback and priced in USD; nothing here is bookable upstream.
func Fallback(q domain.SearchQuery) []domain.FlightOffer {
	dep, err := time.Parse(time.DateOnly, q.DepartureDate)
	if err != nil {
		dep = time.Now().UTC().Truncate(24 * time.Hour)
	}
	var ret time.Time
	if q.ReturnDate != "" {
		ret, _ = time.Parse(time.DateOnly, q.ReturnDate)
	}

	seed := routeSeed(q.Origin, q.Destination)
	flightTime := time.Duration(55+seed%180) * time.Minute
	travellers := q.Adults + q.Children
	if travellers < 1 {
		travellers = 1
	}

	offers := make([]domain.FlightOffer, 0, len(fallbackCarriers))
	for i, carrier := range fallbackCarriers {
		perPerson := int64(150+seed%100) + int64(i)*25
		total := perPerson * int64(travellers)
		if !ret.IsZero() {
			total *= 2
		}

		offer := domain.FlightOffer{
			ID:     fmt.Sprintf("fallback-%s%s-%d", q.Origin, q.Destination, i+1),
			Source: domain.OfferSourceFallback,
			Price: domain.Price{
				Total:    fmt.Sprintf("%d.00", total),
				Base:     fmt.Sprintf("%d.00", total*85/100),
				Currency: "USD",
			},
			NumberOfBookableSeats:  9,
			ValidatingAirlineCodes: []string{carrier.code},
		}

		outbound := dep.Add(time.Duration(carrier.hour) * time.Hour)
		offer.Itineraries = append(offer.Itineraries, fallbackItinerary(q.Origin, q.Destination, carrier.code, carrier.number, outbound, flightTime))
		if !ret.IsZero() {
			inbound := ret.Add(time.Duration(carrier.hour+1) * time.Hour)
			offer.Itineraries = append(offer.Itineraries, fallbackItinerary(q.Destination, q.Origin, carrier.code, carrier.number+1, inbound, flightTime))
		}
		offers = append(offers, offer)
	}
	return offers
}

func fallbackItinerary(from, to, carrier string, number int, at time.Time, d time.Duration) domain.Itinerary {
	duration := isoDuration(d)
	return domain.Itinerary{
		Duration: duration,
		Segments: []domain.Segment{{
			ID:          "1",
			Departure:   domain.Endpoint{IATACode: from, At: at},
			Arrival:     domain.Endpoint{IATACode: to, At: at.Add(d)},
			CarrierCode: carrier,
			Number:      fmt.Sprintf("%d", number),
			Duration:    duration,
		}},
	}
}

func isoDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("PT%dH%dM", h, m)
}

func routeSeed(origin, destination string) int {
	h := fnv.New32a()
	h.Write([]byte(origin + destination))
	return int(h.Sum32() % 1000)
}
