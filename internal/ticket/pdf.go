package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/phpdave11/gofpdf"
)

const dateLayout = "Mon 02 Jan 2006"

// Render builds the booking confirmation PDF. Core fonts are cp1252, so
// amounts are printed with ISO codes rather than currency symbols.
func Render(b *domain.FlightBooking) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+b.Reference, false)
	pdf.SetAuthor("Alpha Travel", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "FLIGHT BOOKING CONFIRMATION")
	pdf.Ln(12)

	pnr := b.PNR
	if pnr == "" {
		pnr = "pending"
	}
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		"Reference : " + b.Reference,
		"PNR       : " + pnr,
		"Status    : " + string(b.Status),
		"Issued    : " + b.CreatedAt.Format("2006-01-02 15:04"),
	} {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Passengers")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for i, p := range b.Passengers {
		line := fmt.Sprintf("%d) %s", i+1, strings.ToUpper(p.FullName()))
		if p.PassportNumber != "" {
			line += "  passport " + p.PassportNumber
		}
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Itinerary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for i, it := range b.Offer.Itineraries {
		label := "Outbound"
		if i > 0 {
			label = "Return"
		}
		pdf.Cell(0, 6, fmt.Sprintf("%s (%s)", label, money.FormatDuration(it.Duration)))
		pdf.Ln(6)
		for _, seg := range it.Segments {
			pdf.Cell(0, 6, tr(segmentLine(seg)))
			pdf.Ln(6)
		}
		pdf.Ln(2)
	}
	pdf.Ln(2)

	pr := b.Pricing
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Payment")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range [][2]string{
		{"Base fare", money.FormatCode(pr.Base, pr.Currency)},
		{"Taxes", money.FormatCode(pr.Tax, pr.Currency)},
		{"Service fee", money.FormatCode(pr.ServiceFee, pr.Currency)},
	} {
		pdf.CellFormat(60, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(60, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, money.FormatCode(pr.Total, pr.Currency), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 10)
	note := "Please present this confirmation and a valid ID at check-in."
	if b.PNR == "" {
		note = "Your reservation is awaiting airline confirmation. The PNR will be sent by email once issued."
	}
	pdf.MultiCell(0, 6, note, "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket %s: %w", b.Reference, err)
	}
	return buf.Bytes(), nil
}

func segmentLine(s domain.Segment) string {
	return fmt.Sprintf("%s%s  %s %s %s  ->  %s %s",
		s.CarrierCode, s.Number,
		s.Departure.At.Format(dateLayout),
		s.Departure.IATACode, money.FormatClock(s.Departure.At),
		s.Arrival.IATACode, money.FormatClock(s.Arrival.At),
	)
}

// Filename is the download name for a booking's ticket.
func Filename(reference string) string {
	return "ticket-" + reference + ".pdf"
}
