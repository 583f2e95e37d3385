package rest

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lvdashuaibi/eventpass/internal/artifact"
	"github.com/lvdashuaibi/eventpass/internal/model"
)

// TicketAPI REST层依赖的票据服务接口
type TicketAPI interface {
	IssueTickets(name, ticketType string, quantity int) ([]*model.Ticket, error)
	ListTickets() ([]*model.Ticket, error)
	ArtifactPath(ticketID string, kind artifact.Kind) (string, error)
	CheckIn(ticketID string) (*model.Ticket, error)
	ValidateTicket(ticketID string) (*model.ValidateResult, error)
}

// Server REST API服务器
type Server struct {
	engine  *gin.Engine
	tickets TicketAPI
}

func NewServer(tickets TicketAPI) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	s := &Server{
		engine:  engine,
		tickets: tickets,
	}

	api := engine.Group("/api")
	{
		api.POST("/tickets", s.handleIssueTickets)
		api.GET("/tickets", s.handleListTickets)
		api.GET("/tickets/:id/qr", s.handleGetQR)
		api.GET("/tickets/:id/pdf", s.handleGetPDF)
		api.POST("/tickets/:id/checkin", s.handleCheckIn)
		api.GET("/tickets/:id/validate", s.handleValidate)
	}

	return s
}

// Engine 返回底层gin引擎，用于挂载额外路由和测试
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handle 在引擎上挂载额外的HTTP处理器（如GraphQL端点）
func (s *Server) Handle(method, path string, handler http.Handler) {
	s.engine.Handle(method, path, gin.WrapH(handler))
}

// Start 启动HTTP服务器
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Printf("REST API服务已启动，地址: http://localhost%s", addr)
	return s.engine.Run(addr)
}

// corsMiddleware 允许跨域请求（前端独立部署）
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
