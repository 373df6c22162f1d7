package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData is everything printed on a retirement certificate
type CertificateData struct {
	OrderID       string
	ProjectName   string
	ProjectKey    string
	Vintage       string
	Quantity      string
	Beneficiary   string
	WalletAddress string
	RetiredAt     time.Time
}

// Generator renders retirement certificates as PDF
type Generator struct{}

// NewGenerator creates a certificate generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateCertificate renders a one-page retirement certificate
func (g *Generator) GenerateCertificate(data CertificateData) ([]byte, error) {
	doc := gofpdf.New("L", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 28)
	doc.CellFormat(0, 30, "Certificate of Carbon Retirement", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(0, 10, "This certifies the permanent retirement of", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "B", 22)
	doc.CellFormat(0, 16, fmt.Sprintf("%s tonnes CO2e", data.Quantity), "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(0, 10, fmt.Sprintf("from %s (vintage %s)", data.ProjectName, data.Vintage), "", 1, "C", false, 0, "")

	if data.Beneficiary != "" {
		doc.CellFormat(0, 10, fmt.Sprintf("on behalf of %s", data.Beneficiary), "", 1, "C", false, 0, "")
	}

	doc.Ln(8)
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, fmt.Sprintf("Project: %s", data.ProjectKey), "", 1, "C", false, 0, "")
	if data.WalletAddress != "" {
		doc.CellFormat(0, 6, fmt.Sprintf("Wallet: %s", data.WalletAddress), "", 1, "C", false, 0, "")
	}
	doc.CellFormat(0, 6, fmt.Sprintf("Order: %s", data.OrderID), "", 1, "C", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Retired on: %s", data.RetiredAt.Format("2 January 2006")), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
