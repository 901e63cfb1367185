package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// PayoutMetrics counts payout workflow activity.
type PayoutMetrics struct {
	transitions     *Counter
	requestedAmount *Counter
	refused         *Counter
}

// NewPayoutMetrics registers the payout counters on meter.
func NewPayoutMetrics(meter metric.Meter) (*PayoutMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	pm := &PayoutMetrics{}
	var err error

	pm.transitions, err = NewCounter(meter,
		"payout_transitions_total",
		"Successful payout workflow transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	pm.requestedAmount, err = NewCounter(meter,
		"payout_requested_amount_total",
		"Total amount of admitted payout requests in minor units (cents)",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	pm.refused, err = NewCounter(meter,
		"payout_refused_total",
		"Payout operations refused by a guard, by error code",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordTransition counts one successful transition.
func (pm *PayoutMetrics) RecordTransition(ctx context.Context, action, toStatus string) {
	pm.transitions.Inc(ctx, AttrAction.String(action), AttrStatus.String(toStatus))
}

// RecordRequestedAmount adds an admitted request amount, converted to cents.
func (pm *PayoutMetrics) RecordRequestedAmount(ctx context.Context, currency string, amount decimal.Decimal) {
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	pm.requestedAmount.Add(ctx, cents, AttrCurrency.String(currency))
}

// RecordRefused counts an operation refused with a domain error code.
func (pm *PayoutMetrics) RecordRefused(ctx context.Context, action, code string) {
	pm.refused.Inc(ctx, AttrAction.String(action), AttrErrorCode.String(code))
}
