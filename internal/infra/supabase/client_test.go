package supabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	guard := resilience.NewGuard("supabase-test", resilience.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxConcurrency: 4,
	})
	return NewClient(srv.Client(), srv.URL, "service-key", guard, zap.NewNop())
}

func TestListAccounts_DecodesRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer service-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if !strings.Contains(r.URL.RawQuery, "user_id=eq.u1") {
			t.Errorf("missing user filter in %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id":"a1","user_id":"u1","category":"credit","name":"Visa","balance":1200.5,"interest_rate":22.9,"credit_limit":5000,"due_date":"2026-11-05","is_paid_off":false,"autopay_enabled":false,"created_at":"2026-01-01T00:00:00Z"}]`))
	})

	accounts, err := c.ListAccounts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	a := accounts[0]
	if a.Category != domain.CategoryCredit || a.Balance != 1200.5 {
		t.Errorf("unexpected account %+v", a)
	}
	if a.CreditLimit == nil || *a.CreditLimit != 5000 {
		t.Errorf("expected credit limit 5000")
	}
	if a.DueDate == nil || a.DueDate.String() != "2026-11-05" {
		t.Errorf("expected due date 2026-11-05, got %v", a.DueDate)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.GetAccount(context.Background(), "u1", "missing")

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAccount_SendsRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"name":"Checking"`) {
			t.Errorf("unexpected body %s", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[` + string(body) + `]`))
	})

	created, err := c.CreateAccount(context.Background(), &domain.Account{
		UserID:   "u1",
		Category: domain.CategoryCash,
		Name:     "Checking",
		Balance:  900,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("expected generated id and timestamp, got %+v", created)
	}
}

func TestConflictIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
	})

	_, err := c.CreateUser(context.Background(), &domain.User{Email: "a@b.c"})

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestServerErrorIsRetriedThenWrapped(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.ListIncome(context.Background(), "u1")

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if ext.Service != "supabase/income_events" {
		t.Errorf("unexpected service label %s", ext.Service)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestDeleteIncome_NothingMatched(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.Write([]byte(`[]`))
	})

	err := c.DeleteIncome(context.Background(), "u1", "gone")

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByEmail_EscapesAndHashes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "eq.ana+test@example.com" {
			t.Errorf("unexpected email filter %q", got)
		}
		w.Write([]byte(`[{"id":"u1","email":"ana+test@example.com","name":"Ana","password_hash":"$2a$hash","created_at":"2026-01-01T00:00:00Z"}]`))
	})

	u, err := c.GetUserByEmail(context.Background(), "Ana+Test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PasswordHash != "$2a$hash" {
		t.Errorf("expected password hash to be decoded, got %q", u.PasswordHash)
	}
}

func TestUpsertSettings_ClearsCreditScore(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Prefer"), "merge-duplicates") {
			t.Errorf("expected upsert prefer header, got %q", r.Header.Get("Prefer"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"credit_score":null`) {
			t.Errorf("expected explicit null credit score, got %s", body)
		}
		w.Write([]byte(`[` + string(body) + `]`))
	})

	s, err := c.UpsertSettings(context.Background(), domain.DefaultSettings("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.UserID != "u1" || s.ExcludedIncomeIDs == nil {
		t.Errorf("unexpected settings %+v", s)
	}
}
