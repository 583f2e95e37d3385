package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lvdashuaibi/eventpass/internal/artifact"
	"github.com/lvdashuaibi/eventpass/internal/model"
)

// handleIssueTickets 批量签发票据
func (s *Server) handleIssueTickets(c *gin.Context) {
	var req model.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, type, and quantity are required"})
		return
	}

	tickets, err := s.tickets.IssueTickets(req.Name, req.Type, req.Quantity)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name, type, and quantity are required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tickets"})
		return
	}

	issued := make([]*model.IssuedTicket, 0, len(tickets))
	for _, ticket := range tickets {
		issued = append(issued, &model.IssuedTicket{
			Ticket:    *ticket,
			QRCodeURL: fmt.Sprintf("/api/tickets/%s/qr", ticket.TicketID),
			PDFURL:    fmt.Sprintf("/api/tickets/%s/pdf", ticket.TicketID),
		})
	}

	c.JSON(http.StatusCreated, issued)
}

// handleListTickets 查询所有票据
func (s *Server) handleListTickets(c *gin.Context) {
	tickets, err := s.tickets.ListTickets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tickets"})
		return
	}

	if tickets == nil {
		tickets = []*model.Ticket{}
	}
	c.JSON(http.StatusOK, tickets)
}

// handleGetQR 下载票据二维码
func (s *Server) handleGetQR(c *gin.Context) {
	s.serveArtifact(c, artifact.KindQR, "QR code not found")
}

// handleGetPDF 下载票据PDF
func (s *Server) handleGetPDF(c *gin.Context) {
	s.serveArtifact(c, artifact.KindPDF, "PDF ticket not found")
}

func (s *Server) serveArtifact(c *gin.Context, kind artifact.Kind, notFoundMsg string) {
	path, err := s.tickets.ArtifactPath(c.Param("id"), kind)
	if err != nil {
		if errors.Is(err, model.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read artifact"})
		return
	}

	c.File(path)
}

// handleCheckIn 检票
func (s *Server) handleCheckIn(c *gin.Context) {
	ticket, err := s.tickets.CheckIn(c.Param("id"))
	if err != nil {
		if errors.Is(err, model.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found", "valid": false})
			return
		}
		if _, ok := model.IsAlreadyCheckedIn(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":            "Ticket already checked in",
				"valid":            false,
				"alreadyCheckedIn": true,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in ticket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket checked in successfully",
		"valid":   true,
		"ticket":  ticket,
	})
}

// handleValidate 只读校验票据
func (s *Server) handleValidate(c *gin.Context) {
	result, err := s.tickets.ValidateTicket(c.Param("id"))
	if err != nil {
		if errors.Is(err, model.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate ticket"})
		return
	}

	c.JSON(http.StatusOK, result)
}
