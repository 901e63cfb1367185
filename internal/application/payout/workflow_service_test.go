package payout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	financeapp "github.com/propertyhub/backend/internal/application/finance"
	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
	"github.com/propertyhub/backend/internal/infrastructure/lock"
	"github.com/propertyhub/backend/internal/infrastructure/persistence/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*payout.PayoutTransitionedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		if evt, ok := e.(*payout.PayoutTransitionedEvent); ok {
			p.events = append(p.events, evt)
		}
	}
	return p.err
}

func (p *recordingPublisher) recorded() []*payout.PayoutTransitionedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*payout.PayoutTransitionedEvent, len(p.events))
	copy(out, p.events)
	return out
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	svc       *WorkflowService
	balances  *financeapp.BalanceService
	entries   *memory.FinanceEntryStore
	repo      *memory.PayoutRequestRepository
	publisher *recordingPublisher
	owner     identity.Actor
	admin     identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ownerID := uuid.New()
	entries := memory.NewFinanceEntryStore()
	repo := memory.NewPayoutRequestRepository()
	clock := &steppingClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	publisher := &recordingPublisher{}

	balances := financeapp.NewBalanceService(financeapp.BalanceServiceConfig{
		Owners:   memory.NewOwnerDirectory(ownerID),
		Entries:  entries,
		Payouts:  repo,
		Currency: valueobject.USD,
		Clock:    clock,
	})
	svc := NewWorkflowService(WorkflowServiceConfig{
		Repository:     repo,
		Balances:       balances,
		Locker:         lock.NewKeyedMutex(),
		EventPublisher: publisher,
		Clock:          clock,
	})

	return &fixture{
		svc:       svc,
		balances:  balances,
		entries:   entries,
		repo:      repo,
		publisher: publisher,
		owner:     identity.Actor{ID: ownerID, Role: identity.RoleOwner},
		admin:     identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin},
	}
}

func (f *fixture) addEntry(t *testing.T, propertyID *uuid.UUID, entryType finance.EntryType, amount string) {
	t.Helper()
	e, err := finance.NewFinanceEntry(f.owner.ID, propertyID, entryType, decimal.RequireFromString(amount), valueobject.USD,
		time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	f.entries.Add(*e)
}

func (f *fixture) available(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.balances.ComputeBalance(context.Background(), f.owner.ID, nil)
	require.NoError(t, err)
	return b.AvailableBalance
}

func (f *fixture) input(amount string) RequestPayoutInput {
	return RequestPayoutInput{
		OwnerID:         f.owner.ID,
		RequestedAmount: decimal.RequireFromString(amount),
		Currency:        "USD",
		PeriodStart:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestWorkflowService_FullLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEntry(t, nil, finance.EntryTypeIncome, "5000")
	f.addEntry(t, nil, finance.EntryTypeExpense, "1200")
	f.addEntry(t, nil, finance.EntryTypeCommission, "300")

	assert.Equal(t, "3500", f.available(t).String())

	req, err := f.svc.RequestPayout(ctx, f.owner, f.input("3500"))
	require.NoError(t, err)
	assert.Equal(t, "pending", req.Status)
	assert.Empty(t, req.AllowedActions, "owner has nothing to do while pending")
	assert.True(t, f.available(t).IsZero())

	approved, err := f.svc.Approve(ctx, f.admin, req.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, []string{"mark_paid"}, approved.AllowedActions)
	assert.True(t, f.available(t).IsZero())

	paid, err := f.svc.MarkPaid(ctx, f.admin, req.ID, "bank_transfer", "TX-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, "bank_transfer", *paid.PaymentMethod)
	assert.NotNil(t, paid.PaymentDate)
	assert.True(t, f.available(t).IsZero())

	done, err := f.svc.ConfirmReceived(ctx, f.owner, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.NotNil(t, done.ConfirmedAt)

	b, err := f.balances.ComputeBalance(ctx, f.owner.ID, nil)
	require.NoError(t, err)
	assert.True(t, b.PendingPayouts.IsZero())
	assert.Equal(t, "3500", b.AvailableBalance.String())

	events := f.publisher.recorded()
	require.Len(t, events, 4)
	wantPath := []struct{ from, to payout.PayoutStatus }{
		{"", payout.StatusPending},
		{payout.StatusPending, payout.StatusApproved},
		{payout.StatusApproved, payout.StatusPaid},
		{payout.StatusPaid, payout.StatusCompleted},
	}
	for i, want := range wantPath {
		assert.Equal(t, want.from, events[i].FromStatus)
		assert.Equal(t, want.to, events[i].ToStatus)
		assert.Equal(t, req.ID, events[i].RequestID)
	}
	assert.Equal(t, f.admin.ID, events[1].ActorID)
	assert.Equal(t, f.owner.ID, events[3].ActorID)
}

func TestWorkflowService_RequestBeyondAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEntry(t, nil, finance.EntryTypeIncome, "5000")
	f.addEntry(t, nil, finance.EntryTypeExpense, "1200")
	f.addEntry(t, nil, finance.EntryTypeCommission, "300")

	_, err := f.svc.RequestPayout(ctx, f.owner, f.input("3500"))
	require.NoError(t, err)

	_, err = f.svc.RequestPayout(ctx, f.owner, f.input("1"))
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	assert.Len(t, f.publisher.recorded(), 1)
}

func TestWorkflowService_ConcurrentRequestsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	f.addEntry(t, nil, finance.EntryTypeIncome, "250")

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, invalidAmount, other := 0, 0, 0

	start := make(chan struct{})
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.RequestPayout(context.Background(), f.owner, f.input("100"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case shared.IsCode(err, shared.CodeInvalidAmount):
				invalidAmount++
			default:
				other++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, attempts-2, invalidAmount)
	assert.Equal(t, 0, other)
	assert.Equal(t, "50", f.available(t).String())
}

func TestWorkflowService_RejectReleasesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEntry(t, nil, finance.EntryTypeIncome, "1000")

	req, err := f.svc.RequestPayout(ctx, f.owner, f.input("600"))
	require.NoError(t, err)
	assert.Equal(t, "400", f.available(t).String())

	_, err = f.svc.Reject(ctx, f.admin, req.ID, "")
	assert.True(t, shared.IsCode(err, shared.CodeValidation))

	rejected, err := f.svc.Reject(ctx, f.admin, req.ID, "missing invoice")
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "missing invoice", rejected.RejectionReason)
	assert.Equal(t, "1000", f.available(t).String())

	_, err = f.svc.Approve(ctx, f.admin, req.ID, "")
	assert.True(t, shared.IsCode(err, shared.CodeInvalidStateTransition))
}

func TestWorkflowService_RequestValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("non-positive amount", func(t *testing.T) {
		f := newFixture(t)
		f.addEntry(t, nil, finance.EntryTypeIncome, "100")
		_, err := f.svc.RequestPayout(ctx, f.owner, f.input("0"))
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.addEntry(t, nil, finance.EntryTypeIncome, "100")
		in := f.input("10")
		in.Currency = "eur"
		_, err := f.svc.RequestPayout(ctx, f.owner, in)
		assert.True(t, shared.IsCode(err, shared.CodeCurrencyMismatch))
	})

	t.Run("malformed currency", func(t *testing.T) {
		f := newFixture(t)
		in := f.input("10")
		in.Currency = "dollars"
		_, err := f.svc.RequestPayout(ctx, f.owner, in)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("unknown owner", func(t *testing.T) {
		f := newFixture(t)
		stranger := identity.Actor{ID: uuid.New(), Role: identity.RoleOwner}
		in := f.input("10")
		in.OwnerID = stranger.ID
		_, err := f.svc.RequestPayout(ctx, stranger, in)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})

	t.Run("admin cannot request", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.RequestPayout(ctx, f.admin, f.input("10"))
		assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))
	})

	t.Run("owner cannot request for another owner", func(t *testing.T) {
		f := newFixture(t)
		other := identity.Actor{ID: uuid.New(), Role: identity.RoleOwner}
		_, err := f.svc.RequestPayout(ctx, other, f.input("10"))
		assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))
	})

	t.Run("negative net balance refuses everything", func(t *testing.T) {
		f := newFixture(t)
		f.addEntry(t, nil, finance.EntryTypeIncome, "100")
		f.addEntry(t, nil, finance.EntryTypeExpense, "300")
		assert.Equal(t, "-200", f.available(t).String())
		_, err := f.svc.RequestPayout(ctx, f.owner, f.input("0.01"))
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
	})
}

func TestWorkflowService_PropertyScopedRequestUsesOwnerLevelBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	propA, propB := uuid.New(), uuid.New()
	f.addEntry(t, &propA, finance.EntryTypeIncome, "100")
	f.addEntry(t, &propB, finance.EntryTypeIncome, "900")

	in := f.input("500")
	in.PropertyID = &propA
	req, err := f.svc.RequestPayout(ctx, f.owner, in)
	require.NoError(t, err)
	assert.Equal(t, &propA, req.PropertyID)

	scoped, err := f.balances.ComputeBalance(ctx, f.owner.ID, &propA)
	require.NoError(t, err)
	assert.Equal(t, "-400", scoped.AvailableBalance.String(), "property view is display only")
	assert.Equal(t, "500", f.available(t).String())
}

func TestWorkflowService_RoleEnforcement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEntry(t, nil, finance.EntryTypeIncome, "1000")

	req, err := f.svc.RequestPayout(ctx, f.owner, f.input("100"))
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.owner, req.ID, "")
	assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))
	_, err = f.svc.Reject(ctx, f.owner, req.ID, "no")
	assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))

	_, err = f.svc.Approve(ctx, f.admin, req.ID, "")
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, f.owner, req.ID, "cash", "")
	assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))
	_, err = f.svc.MarkPaid(ctx, f.admin, req.ID, "", "")
	assert.True(t, shared.IsCode(err, shared.CodeValidation))

	_, err = f.svc.MarkPaid(ctx, f.admin, req.ID, "check", "CHK-7")
	require.NoError(t, err)
	_, err = f.svc.ConfirmReceived(ctx, f.admin, req.ID)
	assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))

	stranger := identity.Actor{ID: uuid.New(), Role: identity.RoleOwner}
	_, err = f.svc.ConfirmReceived(ctx, stranger, req.ID)
	assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))

	stored, err := f.repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusPaid, stored.Status)
}

func TestWorkflowService_TransitionOnUnknownRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Approve(context.Background(), f.admin, uuid.New(), "")
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestWorkflowService_PublishFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEntry(t, nil, finance.EntryTypeIncome, "1000")
	f.publisher.err = errors.New("notification hook down")

	req, err := f.svc.RequestPayout(ctx, f.owner, f.input("100"))
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, f.admin, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)

	stored, err := f.repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusApproved, stored.Status)
	assert.Len(t, f.publisher.recorded(), 2)
}

func TestWorkflowService_Queries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEntry(t, nil, finance.EntryTypeIncome, "1000")

	first, err := f.svc.RequestPayout(ctx, f.owner, f.input("100"))
	require.NoError(t, err)
	second, err := f.svc.RequestPayout(ctx, f.owner, f.input("200"))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, first.ID, "")
	require.NoError(t, err)

	t.Run("history is most recent first", func(t *testing.T) {
		page, err := f.svc.ListOwnerPayouts(ctx, f.owner, f.owner.ID, ListPayoutsFilter{})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, second.ID, page.Items[0].ID)
		assert.Equal(t, first.ID, page.Items[1].ID)
	})

	t.Run("other owners cannot read history", func(t *testing.T) {
		stranger := identity.Actor{ID: uuid.New(), Role: identity.RoleOwner}
		_, err := f.svc.ListOwnerPayouts(ctx, stranger, f.owner.ID, ListPayoutsFilter{})
		assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))
		_, err = f.svc.GetPayout(ctx, stranger, first.ID)
		assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))
	})

	t.Run("admin queue filtered by status", func(t *testing.T) {
		page, err := f.svc.ListPayoutQueue(ctx, f.admin, ListPayoutsFilter{Status: "pending"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, second.ID, page.Items[0].ID)
		assert.Equal(t, []string{"approve", "reject"}, page.Items[0].AllowedActions)
	})

	t.Run("queue is admin only", func(t *testing.T) {
		_, err := f.svc.ListPayoutQueue(ctx, f.owner, ListPayoutsFilter{})
		assert.True(t, shared.IsCode(err, shared.CodePermissionDenied))
	})

	t.Run("unknown status filter", func(t *testing.T) {
		_, err := f.svc.ListPayoutQueue(ctx, f.admin, ListPayoutsFilter{Status: "archived"})
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("get includes allowed actions for viewer", func(t *testing.T) {
		got, err := f.svc.GetPayout(ctx, f.admin, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "approved", got.Status)
		assert.Equal(t, []string{"mark_paid"}, got.AllowedActions)
	})
}
