package graphql

import (
	"context"
	"net/http"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/zap"
)

// maxBodyBytes caps a single GraphQL request document.
const maxBodyBytes = 1 << 20

// Handler serves GraphQL over HTTP POST with a JSON body of
// {query, operationName, variables}.
type Handler struct {
	Schema *gql.Schema
	Log    *zap.Logger
	relay  *relay.Handler
}

// NewHandler parses the schema against root and returns the HTTP handler.
// It panics if the resolvers do not match the schema.
func NewHandler(root *Resolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema := gql.MustParseSchema(Schema, root,
		gql.Logger(panicLogger{log: logger}),
		gql.MaxDepth(12),
	)
	return &Handler{Schema: schema, Log: logger, relay: &relay.Handler{Schema: schema}}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	h.relay.ServeHTTP(w, r)
}

// panicLogger routes resolver panics to zap instead of the standard logger.
type panicLogger struct {
	log *zap.Logger
}

func (p panicLogger) LogPanic(_ context.Context, value interface{}) {
	p.log.Error("graphql: panic occurred", zap.Any("panic", value), zap.Stack("stack"))
}
