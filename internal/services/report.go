package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"earsip/internal/archive"
	"earsip/internal/domain"
)

const (
	reportLineHeight = 5.0
	reportFontSize   = 8.0
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

type reportColumn struct {
	title string
	width float64
	align string
}

var reportColumns = []reportColumn{
	{title: "No", width: 10, align: "C"},
	{title: "Nomor Surat", width: 42, align: "C"},
	{title: "Tanggal", width: 24, align: "C"},
	{title: "Perihal", width: 64, align: "L"},
	{title: "Instansi", width: 50, align: "L"},
}

// ReportService renders the printable archive report.
type ReportService struct {
	office    string
	signatory string
	nip       string
}

func NewReportService() *ReportService {
	return &ReportService{
		office:    "Kepala LPSE Prov. NTB",
		signatory: "LALU MAJEMUK, S.Sos.",
		nip:       "NIP. 19800101 200501 1 001",
	}
}

// ReportLetters selects the letters a report of scope lists, in collection order.
func ReportLetters(letters []domain.Letter, scope archive.Scope) []domain.Letter {
	if scope == archive.ScopeNone {
		scope = archive.ScopeAll
	}
	return archive.Filter(letters, archive.Query{Scope: scope})
}

// ReportTitle is the heading printed above the table.
func ReportTitle(scope archive.Scope) string {
	switch scope {
	case archive.ScopeIncoming:
		return "LAPORAN ARSIP DIGITAL SURAT MASUK"
	case archive.ScopeOutgoing:
		return "LAPORAN ARSIP DIGITAL SURAT KELUAR"
	}
	return "LAPORAN ARSIP DIGITAL SEMUA SURAT"
}

// FormatIndonesianDate renders t as "15 Januari 2024".
func FormatIndonesianDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// Render writes an A4 PDF listing the letters of scope to w.
func (s *ReportService) Render(w io.Writer, letters []domain.Letter, scope archive.Scope, printedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(ReportTitle(scope), true)
	pdf.SetAuthor("e-Arsip LPSE NTB", true)
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	s.writeLetterhead(pdf, tr)

	pdf.SetFont("Helvetica", "BU", 12)
	pdf.CellFormat(0, 8, ReportTitle(scope), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	s.writeTable(pdf, tr, ReportLetters(letters, scope))
	s.writeSignature(pdf, tr, printedAt)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report pdf: %w", err)
	}
	return nil
}

func (s *ReportService) writeLetterhead(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, tr("PEMERINTAH PROVINSI NUSA TENGGARA BARAT"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, tr("BIRO PENGADAAN BARANG DAN JASA"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, tr("Layanan Pengadaan Secara Elektronik (LPSE)"), "", 1, "C", false, 0, "")

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	y := pdf.GetY() + 2
	pdf.SetLineWidth(0.8)
	pdf.Line(left, y, pageWidth-right, y)
	pdf.SetLineWidth(0.2)
	pdf.Ln(8)
}

func (s *ReportService) writeTable(pdf *gofpdf.Fpdf, tr func(string) string, letters []domain.Letter) {
	pdf.SetFont("Helvetica", "B", reportFontSize)
	pdf.SetFillColor(241, 245, 249)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, 7, strings.ToUpper(col.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", reportFontSize)
	if len(letters) == 0 {
		pdf.CellFormat(tableWidth(), 7, tr("Tidak ditemukan arsip."), "1", 1, "C", false, 0, "")
		return
	}

	for idx, l := range letters {
		cells := []string{
			fmt.Sprintf("%d", idx+1),
			tr(l.LetterNumber),
			tr(l.LetterDate),
			tr(l.Subject),
			tr(l.Counterparty),
		}
		s.writeRow(pdf, cells)
	}
}

// writeRow draws one table row whose height fits the tallest wrapped cell.
func (s *ReportService) writeRow(pdf *gofpdf.Fpdf, cells []string) {
	lines := 1
	for i, text := range cells {
		n := len(pdf.SplitLines([]byte(text), reportColumns[i].width-2))
		lines = max(lines, n)
	}
	height := float64(lines) * reportLineHeight

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageHeight-bottom {
		pdf.AddPage()
	}

	x, y := pdf.GetXY()
	for i, text := range cells {
		col := reportColumns[i]
		pdf.Rect(x, y, col.width, height, "D")
		pdf.SetXY(x, y)
		pdf.MultiCell(col.width, reportLineHeight, text, "", col.align, false)
		x += col.width
	}
	pdf.SetXY(pdf.GetX(), y+height)
	left, _, _, _ := pdf.GetMargins()
	pdf.SetX(left)
}

func (s *ReportService) writeSignature(pdf *gofpdf.Fpdf, tr func(string) string, printedAt time.Time) {
	pdf.Ln(12)
	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	blockWidth := 70.0
	x := pageWidth - right - blockWidth
	if x < left {
		x = left
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetX(x)
	pdf.CellFormat(blockWidth, 5, tr("Mataram, "+FormatIndonesianDate(printedAt)), "", 1, "C", false, 0, "")
	pdf.SetX(x)
	pdf.CellFormat(blockWidth, 5, tr(strings.ToUpper(s.office)), "", 1, "C", false, 0, "")
	pdf.Ln(18)
	pdf.SetFont("Helvetica", "BU", 9)
	pdf.SetX(x)
	pdf.CellFormat(blockWidth, 5, tr(s.signatory), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetX(x)
	pdf.CellFormat(blockWidth, 5, tr(s.nip), "", 1, "C", false, 0, "")
}

func tableWidth() float64 {
	total := 0.0
	for _, col := range reportColumns {
		total += col.width
	}
	return total
}
