package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	financeapp "github.com/propertyhub/backend/internal/application/finance"
	payoutapp "github.com/propertyhub/backend/internal/application/payout"
	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
	"github.com/propertyhub/backend/internal/infrastructure/lock"
	"github.com/propertyhub/backend/internal/infrastructure/persistence/memory"
	"github.com/propertyhub/backend/internal/interfaces/http/middleware"
)

// apiFixture serves the real handlers over in-memory storage. Actors are
// passed with the development headers.
type apiFixture struct {
	engine  *gin.Engine
	entries *memory.FinanceEntryStore
	owner   identity.Actor
	other   identity.Actor
	admin   identity.Actor
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	middleware.SetupValidator()

	f := &apiFixture{
		entries: memory.NewFinanceEntryStore(),
		owner:   identity.Actor{ID: uuid.New(), Role: identity.RoleOwner},
		other:   identity.Actor{ID: uuid.New(), Role: identity.RoleOwner},
		admin:   identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin},
	}
	repo := memory.NewPayoutRequestRepository()
	balances := financeapp.NewBalanceService(financeapp.BalanceServiceConfig{
		Owners:   memory.NewOwnerDirectory(f.owner.ID, f.other.ID),
		Entries:  f.entries,
		Payouts:  repo,
		Currency: valueobject.USD,
	})
	workflow := payoutapp.NewWorkflowService(payoutapp.WorkflowServiceConfig{
		Repository: repo,
		Balances:   balances,
		Locker:     lock.NewKeyedMutex(),
	})

	f.engine = gin.New()
	api := f.engine.Group("/api/v1")
	api.Use(middleware.ActorMiddleware(middleware.ActorConfig{DevHeaderFallback: true}))
	NewBalanceHandler(balances).RegisterRoutes(api)
	NewPayoutHandler(workflow).RegisterRoutes(api)
	return f
}

func (f *apiFixture) addEntry(t *testing.T, ownerID uuid.UUID, propertyID *uuid.UUID, entryType finance.EntryType, amount string, at time.Time) {
	t.Helper()
	e, err := finance.NewFinanceEntry(ownerID, propertyID, entryType, decimal.RequireFromString(amount), valueobject.USD, at)
	require.NoError(t, err)
	f.entries.Add(*e)
}

func (f *apiFixture) do(t *testing.T, actor identity.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != uuid.Nil {
		req.Header.Set(middleware.DevUserHeader, actor.ID.String())
		req.Header.Set(middleware.DevRoleHeader, actor.Role.String())
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// data decodes the success envelope's data into out
func data(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func ownerPayoutBody(amount string) map[string]any {
	return map[string]any{
		"requested_amount": amount,
		"currency":         "USD",
		"period_start":     "2026-05-01T00:00:00Z",
		"period_end":       "2026-05-31T23:59:59Z",
		"notes":            "May statement",
	}
}
