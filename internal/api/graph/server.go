package graph

import (
	"context"
	"net/http"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/lvdashuaibi/eventpass/internal/model"
)

// TicketQuerier GraphQL层依赖的只读票据查询接口
type TicketQuerier interface {
	ListTickets() ([]*model.Ticket, error)
	ValidateTicket(ticketID string) (*model.ValidateResult, error)
}

// GraphQLServer 只读GraphQL查询端点
type GraphQLServer struct {
	schema   *graphql.Schema
	handler  *relay.Handler
	resolver *Resolver
}

// GraphQL Schema定义（只读查询，签发和检票走REST接口）
const schemaString = `
type Ticket {
  ticketId: String!
  name: String!
  type: String!
  status: String!
  createdAt: String!
}

type ValidateResult {
  valid: Boolean!
  alreadyCheckedIn: Boolean!
  ticket: Ticket
}

type Query {
  # 按ID查询票据
  getTicket(ticketId: String!): Ticket

  # 查询所有票据
  getAllTickets: [Ticket!]!

  # 校验票据状态（只读，不检票）
  validateTicket(ticketId: String!): ValidateResult!
}

schema {
  query: Query
}
`

// NewGraphQLServer 创建新的GraphQL服务器
func NewGraphQLServer(tickets TicketQuerier) *GraphQLServer {
	resolver := NewResolver(tickets)

	schema := graphql.MustParseSchema(schemaString, resolver,
		graphql.UseFieldResolvers(),
	)

	return &GraphQLServer{
		schema:   schema,
		handler:  &relay.Handler{Schema: schema},
		resolver: resolver,
	}
}

// Handler 返回GraphQL HTTP处理器
func (s *GraphQLServer) Handler() http.Handler {
	return s.handler
}

// PlaygroundHandler 返回GraphQL Playground页面处理器
func (s *GraphQLServer) PlaygroundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(playgroundHTML))
	})
}

// Resolver GraphQL解析器
type Resolver struct {
	tickets TicketQuerier
}

// NewResolver 创建新的解析器
func NewResolver(tickets TicketQuerier) *Resolver {
	return &Resolver{tickets: tickets}
}

// GetTicket 按ID查询票据
func (r *Resolver) GetTicket(ctx context.Context, args struct{ TicketID string }) (*TicketResolver, error) {
	result, err := r.tickets.ValidateTicket(args.TicketID)
	if err != nil {
		return nil, err
	}
	return &TicketResolver{ticket: result.Ticket}, nil
}

// GetAllTickets 查询所有票据
func (r *Resolver) GetAllTickets(ctx context.Context) ([]*TicketResolver, error) {
	tickets, err := r.tickets.ListTickets()
	if err != nil {
		return nil, err
	}

	resolvers := make([]*TicketResolver, len(tickets))
	for i, ticket := range tickets {
		resolvers[i] = &TicketResolver{ticket: ticket}
	}

	return resolvers, nil
}

// ValidateTicket 校验票据状态
func (r *Resolver) ValidateTicket(ctx context.Context, args struct{ TicketID string }) (*ValidateResultResolver, error) {
	result, err := r.tickets.ValidateTicket(args.TicketID)
	if err != nil {
		return nil, err
	}
	return &ValidateResultResolver{result: result}, nil
}

// TicketResolver 票据解析器
type TicketResolver struct {
	ticket *model.Ticket
}

func (r *TicketResolver) TicketID() string {
	return r.ticket.TicketID
}

func (r *TicketResolver) Name() string {
	return r.ticket.Name
}

func (r *TicketResolver) Type() string {
	return r.ticket.Type
}

func (r *TicketResolver) Status() string {
	return r.ticket.Status
}

func (r *TicketResolver) CreatedAt() string {
	return r.ticket.CreatedAt.Format(time.RFC3339)
}

// ValidateResultResolver 校验结果解析器
type ValidateResultResolver struct {
	result *model.ValidateResult
}

func (r *ValidateResultResolver) Valid() bool {
	return r.result.Valid
}

func (r *ValidateResultResolver) AlreadyCheckedIn() bool {
	return r.result.AlreadyCheckedIn
}

func (r *ValidateResultResolver) Ticket() *TicketResolver {
	if r.result.Ticket == nil {
		return nil
	}
	return &TicketResolver{ticket: r.result.Ticket}
}

// playgroundHTML GraphQL Playground HTML
const playgroundHTML = `
<!DOCTYPE html>
<html>
<head>
  <meta charset=utf-8/>
  <meta name="viewport" content="user-scalable=no, initial-scale=1.0, minimum-scale=1.0, maximum-scale=1.0, minimal-ui">
  <title>EventPass GraphQL Playground</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react@1.7.22/build/static/css/index.css" />
  <link rel="shortcut icon" href="https://cdn.jsdelivr.net/npm/graphql-playground-react@1.7.22/build/favicon.png" />
  <script src="https://cdn.jsdelivr.net/npm/graphql-playground-react@1.7.22/build/static/js/middleware.js"></script>
</head>
<body>
  <div id="root"></div>
  <script>window.addEventListener('load', function (event) {
      GraphQLPlayground.init(document.getElementById('root'), {
        endpoint: '/graphql'
      })
    })</script>
</body>
</html>
`
