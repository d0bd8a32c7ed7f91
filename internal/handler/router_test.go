package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/handler"
	"github.com/boddenberg/runway-bfa/internal/infra/cache"
	"github.com/boddenberg/runway-bfa/internal/infra/observability"
	"github.com/boddenberg/runway-bfa/internal/infra/resilience"
	"github.com/boddenberg/runway-bfa/internal/infra/sqlstore"
	"github.com/boddenberg/runway-bfa/internal/service"

	"go.uber.org/zap"
)

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(nil, nil, observability.NewMetrics(), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz_WithoutStore(t *testing.T) {
	router := handler.NewRouter(nil, nil, observability.NewMetrics(), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := handler.NewRouter(nil, nil, observability.NewMetrics(), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPI_WithoutServices(t *testing.T) {
	router := handler.NewRouter(nil, nil, observability.NewMetrics(), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader("{}")))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/metrics/engine", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected engine metrics to stay available, got %d", rec.Code)
	}
}

// --- Full stack over a temporary SQLite database ---

type testServer struct {
	t       *testing.T
	router  http.Handler
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	guard := resilience.NewGuard(sqlstore.BackendName, resilience.Config{
		MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 4,
	})
	store, err := sqlstore.Open(context.Background(), filepath.Join(t.TempDir(), "runway.db"), guard, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	dashCache := cache.New[*service.Dashboard](time.Minute)
	t.Cleanup(func() { _ = dashCache.Close() })

	financeSvc := service.NewFinanceService(store, dashCache, metrics, logger, 12)
	authSvc := service.NewAuthService(store, "handler-test-secret", time.Hour, logger)

	return &testServer{
		t:       t,
		router:  handler.NewRouter(financeSvc, authSvc, metrics, []string{"https://app.example.com"}, logger),
		metrics: metrics,
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/auth/register", "", domain.RegisterRequest{
		Email: email, Name: "Test", Password: "long enough password",
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var resp domain.LoginResponse
	decode(s.t, rec, &resp)
	return resp.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func f64(v float64) *float64 { return &v }

func (s *testServer) seed(token string) (cashID, cardID string) {
	s.t.Helper()
	var cash, card domain.Account
	rec := s.do(http.MethodPost, "/v1/me/accounts", token, domain.Account{
		Category: domain.CategoryCash, Name: "Checking", Balance: 9000,
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create cash: %d %s", rec.Code, rec.Body)
	}
	decode(s.t, rec, &cash)

	rec = s.do(http.MethodPost, "/v1/me/accounts", token, domain.Account{
		Category: domain.CategoryCredit, Name: "Visa", Balance: 3000, InterestRate: 20, CreditLimit: f64(10000),
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create card: %d %s", rec.Code, rec.Body)
	}
	decode(s.t, rec, &card)

	rec = s.do(http.MethodPut, "/v1/me/settings", token, domain.FinanceSettings{MonthlyExpenses: 3000, IncomeEnabled: true})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("settings: %d %s", rec.Code, rec.Body)
	}
	return cash.ID, card.ID
}

func TestHealthz_ReportsStore(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	var health domain.HealthStatus
	decode(t, rec, &health)
	if health.Status != "healthy" || len(health.Services) != 2 || health.Services[1].Name != "sqlite" {
		t.Errorf("unexpected health %+v", health)
	}

	if rec := s.do(http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("expected ready, got %d", rec.Code)
	}
}

func TestMe_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	tests := map[string]string{
		"missing":   "",
		"malformed": "Token abc",
		"garbage":   "Bearer abc",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me/dashboard", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuth_LoginAndDuplicate(t *testing.T) {
	s := newTestServer(t)
	s.register("ana@example.com")

	rec := s.do(http.MethodPost, "/v1/auth/register", "", domain.RegisterRequest{
		Email: "ana@example.com", Name: "Ana", Password: "long enough password",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{Email: "ana@example.com", Password: "wrong password"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{Email: "ana@example.com", Password: "long enough password"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodPost, "/v1/auth/login", "", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad body, got %d", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ana@example.com")
	s.seed(token)

	rec := s.do(http.MethodGet, "/v1/me/dashboard", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var d service.Dashboard
	decode(t, rec, &d)

	if d.Runway.Days != 90 || d.Runway.Months != 3 {
		t.Errorf("expected 90 days / 3.0 months, got %+v", d.Runway)
	}
	if d.Totals.NetWorth != 6000 {
		t.Errorf("expected net worth 6000, got %f", d.Totals.NetWorth)
	}
	if d.Utilization != 30 || d.UtilizationBand != "good" {
		t.Errorf("expected 30%% good, got %f %s", d.Utilization, d.UtilizationBand)
	}
	if len(d.Debts) != 1 || d.Debts[0].Payment != 60 {
		t.Errorf("expected one debt at the 2%% minimum, got %+v", d.Debts)
	}

	// Second read is served from cache.
	s.do(http.MethodGet, "/v1/me/dashboard", token, nil)
	rec = s.do(http.MethodGet, "/v1/metrics/engine", "", nil)
	var m domain.EngineMetrics
	decode(t, rec, &m)
	if m.DashboardsBuilt != 1 || m.CacheHitRate != 0.5 {
		t.Errorf("expected 1 dashboard built and a 50%% hit rate, got %+v", m)
	}
}

func TestAccounts_IsolatedPerUser(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana@example.com")
	bob := s.register("bob@example.com")
	cashID, _ := s.seed(ana)

	if rec := s.do(http.MethodGet, "/v1/me/accounts/"+cashID, bob, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 reading another user's account, got %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/v1/me/accounts/"+cashID, bob, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting another user's account, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/v1/me/accounts", bob, nil)
	var groups domain.AccountGroups
	decode(t, rec, &groups)
	if len(groups.Flatten()) != 0 {
		t.Errorf("expected no accounts for bob, got %+v", groups)
	}
}

func TestAccounts_UpdateAndValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ana@example.com")
	cashID, _ := s.seed(token)

	rec := s.do(http.MethodPatch, "/v1/me/accounts/"+cashID, token, map[string]any{"balance": 12000})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var updated domain.Account
	decode(t, rec, &updated)
	if updated.Balance != 12000 {
		t.Errorf("expected balance 12000, got %f", updated.Balance)
	}

	rec = s.do(http.MethodPatch, "/v1/me/accounts/"+cashID, token, map[string]any{"balance": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	decode(t, rec, &errResp)
	if errResp.Field != "balance" {
		t.Errorf("expected the offending field in the error, got %+v", errResp)
	}

	rec = s.do(http.MethodPut, "/v1/me/settings", token, map[string]any{"monthly_expenses": 100, "credit_score": 900})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a credit score over 850, got %d", rec.Code)
	}
}

func TestAccountProjections(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ana@example.com")
	cashID, cardID := s.seed(token)

	rec := s.do(http.MethodGet, "/v1/me/accounts/"+cardID+"/payoff?payment=300", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("payoff: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var plan service.PayoffPlan
	decode(t, rec, &plan)
	if plan.Payment != 300 || plan.Payoff.Status != "paid_off" || plan.Payoff.Months != 12 {
		t.Errorf("unexpected plan %+v", plan.Payoff)
	}

	if rec := s.do(http.MethodGet, "/v1/me/accounts/"+cardID+"/payoff?payment=abc", token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a non-numeric payment, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/v1/me/accounts/"+cashID+"/payoff", token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 simulating a cash account, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/v1/me/accounts/"+cardID+"/calculator?months=12", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculator: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var calc service.CardCalculation
	decode(t, rec, &calc)
	if calc.Target == nil || calc.Target.Payoff.Months != 12 {
		t.Errorf("expected a 12 month target, got %+v", calc.Target)
	}

	rec = s.do(http.MethodGet, "/v1/me/debts/strategy?extra=100", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("strategy: expected 200, got %d: %s", rec.Code, rec.Body)
	}
}

func TestWhatIfProjections(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ana@example.com")

	rec := s.do(http.MethodPost, "/v1/me/projections/runway", token, map[string]any{
		"cash": 6000, "monthlyExpenses": 2000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("runway: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var runway service.RunwayProjection
	decode(t, rec, &runway)
	if runway.Runway.Months != 3 || runway.Label != "3.0" || len(runway.Balances) != 12 {
		t.Errorf("unexpected runway %+v", runway)
	}

	rec = s.do(http.MethodPost, "/v1/me/projections/payoff", token, map[string]any{
		"balance": 5000, "interestRate": 24, "payment": 100,
	})
	var payoff service.PayoffProjection
	decode(t, rec, &payoff)
	if payoff.Status != "stalled" || payoff.InterestOnlyPayment != 100 {
		t.Errorf("expected a stalled payoff at the interest-only payment, got %+v", payoff)
	}

	rec = s.do(http.MethodPost, "/v1/me/projections/score", token, map[string]any{
		"utilization": 5, "accountCount": 5,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("score: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodPost, "/v1/me/projections/required-payment", token, map[string]any{
		"balance": 5000, "interestRate": 18, "months": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero months, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/v1/me/projections/strategy", token, map[string]any{
		"debts": []map[string]any{{"id": "a", "name": "A", "balance": 1000, "interestRate": 10, "minimumPayment": 50}},
		"extraPayment": 50,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("strategy: expected 200, got %d: %s", rec.Code, rec.Body)
	}
}

func TestSnapshots_CreateRestore(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ana@example.com")
	cashID, _ := s.seed(token)

	rec := s.do(http.MethodPost, "/v1/me/snapshots", token, map[string]string{"label": "baseline"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var snap domain.Snapshot
	decode(t, rec, &snap)

	if rec := s.do(http.MethodPost, "/v1/me/snapshots", token, nil); rec.Code != http.StatusCreated {
		t.Errorf("expected an unlabeled snapshot without a body, got %d", rec.Code)
	}

	s.do(http.MethodDelete, "/v1/me/accounts/"+cashID, token, nil)

	rec = s.do(http.MethodPost, "/v1/me/snapshots/"+snap.ID+"/restore", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodGet, "/v1/me/dashboard", token, nil)
	var d service.Dashboard
	decode(t, rec, &d)
	if d.Totals.Cash != 9000 {
		t.Errorf("expected restored cash 9000, got %f", d.Totals.Cash)
	}

	rec = s.do(http.MethodGet, "/v1/me/snapshots", token, nil)
	var list []domain.Snapshot
	decode(t, rec, &list)
	if len(list) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(list))
	}

	if rec := s.do(http.MethodDelete, "/v1/me/snapshots/"+snap.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/v1/me/snapshots/"+snap.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana@example.com")
	bob := s.register("bob@example.com")
	s.seed(ana)

	rec := s.do(http.MethodGet, "/v1/me/export?format=csv", ana, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Errorf("expected a csv attachment, got %q", cd)
	}

	rec = s.do(http.MethodPost, "/v1/me/import?format=csv", bob, rec.Body.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var res service.ImportResult
	decode(t, rec, &res)
	if res.Accounts != 2 {
		t.Errorf("expected 2 accounts imported, got %+v", res)
	}

	if rec := s.do(http.MethodGet, "/v1/me/export?format=xml", ana, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown format, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/v1/me/import", bob, "{"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a broken json import, got %d", rec.Code)
	}
}

func TestAchievements(t *testing.T) {
	s := newTestServer(t)
	token := s.register("ana@example.com")
	s.seed(token)

	rec := s.do(http.MethodGet, "/v1/me/achievements", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var p service.Progress
	decode(t, rec, &p)
	if p.Points == 0 || p.Level < 1 {
		t.Errorf("expected some points for a funded account, got %+v", p)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/me/dashboard", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected the origin echoed back, got %q", got)
	}

	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS grant for an unknown origin, got %q", got)
	}
}
