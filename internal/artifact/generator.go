package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/lvdashuaibi/eventpass/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// Kind 票据附件类型
type Kind string

const (
	KindQR  Kind = "qr"
	KindPDF Kind = "pdf"
)

// Generator 票据附件生成器，生成的二维码和PDF以票据ID命名存入附件目录。
type Generator struct {
	dir    string
	qrSize int
}

func NewGenerator(dir string, qrSize int) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建附件目录失败: %w", err)
	}

	return &Generator{
		dir:    dir,
		qrSize: qrSize,
	}, nil
}

// Generate 为票据生成二维码和PDF文件
func (g *Generator) Generate(ticket *model.Ticket) error {
	qrPath := g.filePath(ticket.TicketID, KindQR)
	pdfPath := g.filePath(ticket.TicketID, KindPDF)

	// 生成二维码，内容为票据ID
	if err := qrcode.WriteFile(ticket.TicketID, qrcode.Medium, g.qrSize, qrPath); err != nil {
		return fmt.Errorf("%w: 生成票据 %s 二维码失败: %v", model.ErrArtifactGeneration, ticket.TicketID, err)
	}

	if err := g.renderPDF(ticket, qrPath, pdfPath); err != nil {
		return fmt.Errorf("%w: 生成票据 %s PDF失败: %v", model.ErrArtifactGeneration, ticket.TicketID, err)
	}

	return nil
}

// renderPDF 渲染A4票据PDF：标题、持票人、票种、票据ID和内嵌二维码
func (g *Generator) renderPDF(ticket *model.Ticket, qrPath, pdfPath string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 25)
	pdf.CellFormat(0, 14, "Event Ticket", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 15)
	pdf.CellFormat(0, 9, fmt.Sprintf("Attendee: %s", ticket.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("Ticket Type: %s", ticket.Type), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("Ticket ID: %s", ticket.TicketID), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pageWidth, _ := pdf.GetPageSize()
	const qrSide = 80.0
	pdf.ImageOptions(qrPath, (pageWidth-qrSide)/2, pdf.GetY(), qrSide, qrSide, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	return pdf.OutputFileAndClose(pdfPath)
}

// Path 返回附件文件路径，文件不存在时返回 model.ErrArtifactNotFound
func (g *Generator) Path(ticketID string, kind Kind) (string, error) {
	// 票据ID来自URL路径，拒绝路径穿越
	if ticketID == "" || strings.ContainsAny(ticketID, `/\.`) {
		return "", model.ErrArtifactNotFound
	}

	path := g.filePath(ticketID, kind)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", model.ErrArtifactNotFound
		}
		return "", fmt.Errorf("检查附件文件失败: %w", err)
	}

	return path, nil
}

func (g *Generator) filePath(ticketID string, kind Kind) string {
	ext := ".png"
	if kind == KindPDF {
		ext = ".pdf"
	}
	return filepath.Join(g.dir, ticketID+ext)
}
