package labels

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
)

// ComponentLabelData is one printable tag. The barcode value is derived
// from the component ID so tags stay scannable after code edits.
type ComponentLabelData struct {
	ComponentID   int64
	Code          string
	ComponentType string
	DrawingNumber string
	ProjectName   string
	ClientName    string
}

func componentBarcodeValue(componentID int64) string {
	return fmt.Sprintf("C%08d", componentID)
}

func renderComponentLabelPDF(label ComponentLabelData, printedAt time.Time) ([]byte, string, error) {
	pdfBytes, err := renderComponentLabelsPDF([]ComponentLabelData{label}, printedAt)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, componentBarcodeValue(label.ComponentID), nil
}

func renderComponentLabelsPDF(labels []ComponentLabelData, printedAt time.Time) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels to render")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Component Tags", false)

	for _, label := range labels {
		barcodeValue := componentBarcodeValue(label.ComponentID)
		barcodePNG, err := renderCode128PNG(barcodeValue, 1200, 260)
		if err != nil {
			return nil, err
		}

		pdf.AddPage()
		code := strings.TrimSpace(label.Code)
		if code == "" {
			code = "UNTAGGED"
		}
		projectName := strings.TrimSpace(label.ProjectName)
		if projectName == "" {
			projectName = "Unnamed Project"
		}
		clientName := strings.TrimSpace(label.ClientName)
		if clientName == "" {
			clientName = "Unknown Client"
		}
		componentType := strings.TrimSpace(label.ComponentType)
		if componentType == "" {
			componentType = "N/A"
		}

		pdf.SetFont("Helvetica", "B", 44)
		pdf.CellFormat(0, 20, clientName, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "B", 52)
		codeFont := fitFontSizeForWidth(pdf, "Helvetica", "B", 52, 24, code, 260)
		pdf.SetFont("Helvetica", "B", codeFont)
		pdf.CellFormat(0, 22, code, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 16)
		pdf.CellFormat(0, 9, "Project: "+projectName, "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 9, "Drawing: "+strings.TrimSpace(label.DrawingNumber), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 9, "Type: "+componentType, "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 9, "Printed: "+printedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")

		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("component-barcode-%d", label.ComponentID)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
		pageW, _ := pdf.GetPageSize()
		imgW := 240.0
		imgH := 56.0
		x := (pageW - imgW) / 2
		y := 112.0
		pdf.ImageOptions(imageName, x, y, imgW, imgH, false, opt, 0, "")

		pdf.SetY(y + imgH + 6)
		pdf.SetFont("Helvetica", "B", 24)
		pdf.CellFormat(0, 12, barcodeValue, "", 1, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var barcodePNG bytes.Buffer
	if err := png.Encode(&barcodePNG, normalized); err != nil {
		return nil, err
	}
	return barcodePNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
