// Package supabase is the PostgREST adapter of the finance and user stores.
// Every call runs behind the shared resilience guard.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// BackendName labels metrics and errors produced by this adapter.
const BackendName = "supabase"

// Client wraps HTTP calls to the Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	serviceRoleKey string
	guard          *resilience.Guard
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, serviceRoleKey string, guard *resilience.Guard, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		serviceRoleKey: serviceRoleKey,
		guard:          guard,
		logger:         logger,
	}
}

// Name implements port.FinanceStore.
func (c *Client) Name() string { return BackendName }

// Ping hits the PostgREST root, which answers with the schema description.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	return c.exec(ctx, "ping", func(ctx context.Context) error {
		_, err := c.doRequest(ctx, http.MethodGet, "")
		return err
	})
}

// exec runs fn behind the guard. Domain errors pass through untouched;
// everything else is wrapped as an external service failure.
func (c *Client) exec(ctx context.Context, op string, fn func(context.Context) error) error {
	err := c.guard.Do(ctx, fn)
	if err == nil {
		return nil
	}

	var (
		notFound *domain.ErrNotFound
		conflict *domain.ErrConflict
		invalid  *domain.ErrValidation
		open     *domain.ErrCircuitOpen
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &conflict), errors.As(err, &invalid), errors.As(err, &open):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &domain.ErrExternalService{Service: fmt.Sprintf("%s/%s", BackendName, op), Err: err}
}
