package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	financeapp "github.com/propertyhub/backend/internal/application/finance"
	"github.com/propertyhub/backend/internal/domain/finance"
)

func TestBalanceHandler_GetBalance(t *testing.T) {
	f := newAPIFixture(t)
	may := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	f.addEntry(t, f.owner.ID, nil, finance.EntryTypeIncome, "5000", may)
	f.addEntry(t, f.owner.ID, nil, finance.EntryTypeExpense, "1200", may)
	f.addEntry(t, f.owner.ID, nil, finance.EntryTypeCommission, "300", may)

	w := f.do(t, f.owner, http.MethodGet, "/api/v1/owners/"+f.owner.ID.String()+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var b financeapp.BalanceResponse
	data(t, w, &b)
	assert.Equal(t, "5000", b.TotalIncome.String())
	assert.Equal(t, "1200", b.TotalExpenses.String())
	assert.Equal(t, "300", b.CommissionDeductions.String())
	assert.Equal(t, "3500", b.NetBalance.String())
	assert.Equal(t, "0", b.PendingPayouts.String())
	assert.Equal(t, "3500", b.AvailableBalance.String())
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, "all", b.PropertyScope)
	assert.Equal(t, 3, b.EntryCount)
}

func TestBalanceHandler_ReflectsPendingPayouts(t *testing.T) {
	f := newAPIFixture(t)
	f.addEntry(t, f.owner.ID, nil, finance.EntryTypeIncome, "1000", time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))

	w := f.do(t, f.owner, http.MethodPost, "/api/v1/owners/"+f.owner.ID.String()+"/payouts", ownerPayoutBody("400"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, f.admin, http.MethodGet, "/api/v1/owners/"+f.owner.ID.String()+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var b financeapp.BalanceResponse
	data(t, w, &b)
	assert.Equal(t, "1000", b.NetBalance.String())
	assert.Equal(t, "400", b.PendingPayouts.String())
	assert.Equal(t, "600", b.AvailableBalance.String())
}

func TestBalanceHandler_PropertyAndPeriodFilters(t *testing.T) {
	f := newAPIFixture(t)
	villa := uuid.New()
	f.addEntry(t, f.owner.ID, &villa, finance.EntryTypeIncome, "800", time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC))
	f.addEntry(t, f.owner.ID, &villa, finance.EntryTypeIncome, "200", time.Date(2026, 5, 31, 18, 0, 0, 0, time.UTC))
	f.addEntry(t, f.owner.ID, nil, finance.EntryTypeIncome, "1000", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))

	base := "/api/v1/owners/" + f.owner.ID.String() + "/balance"

	w := f.do(t, f.owner, http.MethodGet, base+"?property_id="+villa.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var b financeapp.BalanceResponse
	data(t, w, &b)
	assert.Equal(t, "1000", b.TotalIncome.String())
	assert.Equal(t, villa.String(), b.PropertyScope)

	// a plain end date covers the whole day
	w = f.do(t, f.owner, http.MethodGet, base+"?from=2026-05-01&to=2026-05-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data(t, w, &b)
	assert.Equal(t, "1200", b.TotalIncome.String())
	assert.Equal(t, 2, b.EntryCount)
	require.NotNil(t, b.From)
	require.NotNil(t, b.To)
	assert.True(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Equal(*b.From))
	assert.True(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond).Equal(*b.To))
}

func TestBalanceHandler_Errors(t *testing.T) {
	f := newAPIFixture(t)
	base := "/api/v1/owners/"

	tests := []struct {
		name     string
		path     string
		wantHTTP int
		wantCode string
	}{
		{"other owner", base + f.other.ID.String() + "/balance", http.StatusForbidden, "PERMISSION_DENIED"},
		{"malformed owner id", base + "nope/balance", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed property", base + f.owner.ID.String() + "/balance?property_id=villa", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed date", base + f.owner.ID.String() + "/balance?from=yesterday", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"inverted period", base + f.owner.ID.String() + "/balance?from=2026-06-01&to=2026-05-01", http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, f.owner, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}

	t.Run("unknown owner for admin", func(t *testing.T) {
		w := f.do(t, f.admin, http.MethodGet, base+uuid.NewString()+"/balance", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, w))
	})
}
