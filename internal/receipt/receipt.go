// Package receipt renders registration receipts as PDF and publishes them
// through object storage.
package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-pdf/fpdf"
	"github.com/mauv0809/shuttlereg/internal/registration"
	"github.com/mauv0809/shuttlereg/internal/storage"
	"github.com/mauv0809/shuttlereg/internal/tournament"
)

const contentType = "application/pdf"

// Generator implements registration.ReceiptRenderer.
type Generator struct {
	uploader    storage.FileUploader
	tournaments tournament.Lookup
}

var _ registration.ReceiptRenderer = (*Generator)(nil)

// New creates a Generator. Tournament details are best effort: a failed
// lookup still produces a receipt.
func New(uploader storage.FileUploader, tournaments tournament.Lookup) *Generator {
	return &Generator{uploader: uploader, tournaments: tournaments}
}

// Key returns the object key of a registration's receipt.
func Key(r *registration.Registration) string {
	return fmt.Sprintf("receipts/%s/%s.pdf", r.TournamentID, r.ID)
}

// Render builds the PDF, uploads it and returns its public URL.
func (g *Generator) Render(ctx context.Context, r *registration.Registration) (string, error) {
	var t *tournament.Tournament
	if g.tournaments != nil {
		var err error
		if t, err = g.tournaments.GetByID(ctx, r.TournamentID); err != nil {
			log.Warn("Rendering receipt without tournament details", "tournamentID", r.TournamentID, "error", err)
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, r, t); err != nil {
		return "", err
	}
	res, err := g.uploader.Upload(ctx, Key(r), contentType, &buf)
	if err != nil {
		return "", err
	}
	if res.Location == "" {
		return "", errors.New("uploader returned no public url")
	}
	log.Info("Receipt generated", "registrationID", r.ID, "url", res.Location)
	return res.Location, nil
}

// Write renders the receipt for r into buf. t may be nil.
func Write(buf *bytes.Buffer, r *registration.Registration, t *tournament.Tournament) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Registration receipt "+r.ID, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Registration Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	if t != nil {
		row(pdf, "Tournament", tr(t.Name))
		if t.Venue != "" {
			row(pdf, "Venue", tr(t.Venue))
		}
		if t.StartDate != nil {
			dates := t.StartDate.Format("02 Jan 2006")
			if t.EndDate != nil && !t.EndDate.Equal(*t.StartDate) {
				dates += " - " + t.EndDate.Format("02 Jan 2006")
			}
			row(pdf, "Dates", dates)
		}
	} else {
		row(pdf, "Tournament", r.TournamentID)
	}
	row(pdf, "Registration ID", r.ID)
	row(pdf, "Status", string(r.Status))
	row(pdf, "Payment", string(r.PaymentStatus))
	if r.PaymentID != "" {
		row(pdf, "Payment ID", r.PaymentID)
	}
	if r.RegistrationDate != nil {
		row(pdf, "Registered on", r.RegistrationDate.Format(time.RFC1123))
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 8, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 8, "Event", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, "Partner", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Fee", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, e := range r.SelectedEvents {
		partner := "-"
		if e.Partner != nil && e.Partner.Name != "" {
			partner = tr(e.Partner.Name)
		}
		pdf.CellFormat(60, 8, e.Category.DisplayName(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 8, e.Type.DisplayName(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, partner, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, money(e.Price), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(155, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, money(r.TotalAmount), "1", 1, "R", false, 0, "")

	if t != nil && t.Contact.Email != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Questions? Contact %s at %s.", t.Contact.OrganizerName, t.Contact.Email)), "", "L", false)
	}

	if err := pdf.Output(buf); err != nil {
		return fmt.Errorf("failed to render receipt pdf: %w", err)
	}
	return nil
}

func row(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func money(amount float64) string {
	return fmt.Sprintf("%s %.2f", registration.DefaultCurrency, amount)
}
