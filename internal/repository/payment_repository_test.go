package repository

import (
	"context"
	"testing"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/testutil"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chain struct {
	db       *gorm.DB
	requests RequestRepository
	quotes   QuoteRepository
	payments PaymentRepository
	earnings EarningRepository
}

func newChain(t *testing.T) *chain {
	db := testutil.NewDB(t)
	return &chain{
		db:       db,
		requests: NewRequestRepository(db),
		quotes:   NewQuoteRepository(db),
		payments: NewPaymentRepository(db),
		earnings: NewEarningRepository(db),
	}
}

func newQuote(r *model.ServiceRequest) *model.Quote {
	return &model.Quote{
		RequestID:     r.ID,
		WorkerID:      r.WorkerID,
		ClientID:      r.ClientID,
		TotalPrice:    250,
		EstimatedTime: "3 horas",
		Status:        workflow.QuotePending,
		Lines:         []model.QuoteLine{{Position: 0, Description: "Diagnóstico", Price: 250}},
	}
}

func newPayment(q *model.Quote) *model.Payment {
	return &model.Payment{
		QuoteID:   q.ID,
		RequestID: q.RequestID,
		ClientID:  q.ClientID,
		WorkerID:  q.WorkerID,
		Amount:    250,
		Method:    workflow.MethodPagoMovil,
		Reference: "0102-123456",
		Status:    workflow.PaymentPendingVerification,
	}
}

// accepted walks a fresh request through an accepted quote.
func (c *chain) accepted(t *testing.T, client, worker string) (*model.ServiceRequest, *model.Quote) {
	t.Helper()
	ctx := context.Background()
	r := newRequest(client, worker)
	_, err := c.requests.CreateIfNoActive(ctx, r)
	require.NoError(t, err)
	q := newQuote(r)
	created, err := c.quotes.CreateIfNoOpen(ctx, q)
	require.NoError(t, err)
	require.True(t, created)
	n, from, err := c.quotes.RespondIf(ctx, q.ID, workflow.QuotePending, workflow.QuoteAccepted)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, workflow.RequestPending, from)
	return r, q
}

func TestCreateQuoteOnClosedRequest(t *testing.T) {
	c := newChain(t)
	ctx := context.Background()
	r := newRequest("c1", "w1")
	_, err := c.requests.CreateIfNoActive(ctx, r)
	require.NoError(t, err)

	created, err := c.quotes.CreateIfNoOpen(ctx, newQuote(r))
	require.NoError(t, err)
	assert.True(t, created)
	created, err = c.quotes.CreateIfNoOpen(ctx, newQuote(r))
	require.NoError(t, err)
	assert.False(t, created, "one open quote per request")

	_, err = c.requests.UpdateStatusIf(ctx, r.ID, workflow.RequestPending, workflow.RequestRejected)
	require.NoError(t, err)
	_, err = c.quotes.CreateIfNoOpen(ctx, newQuote(r))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRespondIfAcceptsRequest(t *testing.T) {
	c := newChain(t)
	ctx := context.Background()
	r, q := c.accepted(t, "c1", "w1")

	got, err := c.requests.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.RequestAccepted, got.Status)

	n, _, err := c.quotes.RespondIf(ctx, q.ID, workflow.QuotePending, workflow.QuoteRejected)
	require.NoError(t, err)
	assert.Zero(t, n, "already answered")

	_, err = c.requests.UpdateStatusIf(ctx, r.ID, workflow.RequestAccepted, workflow.RequestCancelled)
	require.NoError(t, err)
	_, _, err = c.quotes.RespondIf(ctx, q.ID, workflow.QuoteRejected, workflow.QuoteAccepted)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCreatePaymentNeedsAcceptedQuote(t *testing.T) {
	c := newChain(t)
	ctx := context.Background()
	r := newRequest("c1", "w1")
	_, err := c.requests.CreateIfNoActive(ctx, r)
	require.NoError(t, err)
	q := newQuote(r)
	_, err = c.quotes.CreateIfNoOpen(ctx, q)
	require.NoError(t, err)

	_, err = c.payments.CreateIfNoLive(ctx, newPayment(q))
	assert.ErrorIs(t, err, ErrClosed, "quote still pending")

	_, q = c.accepted(t, "c2", "w1")
	created, err := c.payments.CreateIfNoLive(ctx, newPayment(q))
	require.NoError(t, err)
	assert.True(t, created)
	created, err = c.payments.CreateIfNoLive(ctx, newPayment(q))
	require.NoError(t, err)
	assert.False(t, created, "one live payment per quote")
}

func TestSettleClosesEverything(t *testing.T) {
	c := newChain(t)
	ctx := context.Background()
	r, q := c.accepted(t, "c1", "w1")
	p := newPayment(q)
	_, err := c.payments.CreateIfNoLive(ctx, p)
	require.NoError(t, err)

	require.NoError(t, c.payments.Settle(ctx, p, 25000))

	gotP, err := c.payments.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentVerified, gotP.Status)
	assert.NotNil(t, gotP.VerifiedAt)
	gotQ, err := c.quotes.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.QuotePaid, gotQ.Status)
	assert.NotNil(t, gotQ.PaidAt)
	gotR, err := c.requests.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.RequestCompleted, gotR.Status)
	assert.Nil(t, gotR.ActivePair)
	earned, err := c.earnings.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(25000), earned.EarnedCents)
	assert.Equal(t, int64(1), earned.Payments)

	assert.ErrorIs(t, c.payments.Settle(ctx, p, 25000), ErrClosed, "request already completed")
}

func TestSettleRollsBackOnClosedRequest(t *testing.T) {
	c := newChain(t)
	ctx := context.Background()
	r, q := c.accepted(t, "c1", "w1")
	p := newPayment(q)
	_, err := c.payments.CreateIfNoLive(ctx, p)
	require.NoError(t, err)
	_, err = c.requests.UpdateStatusIf(ctx, r.ID, workflow.RequestAccepted, workflow.RequestCancelled)
	require.NoError(t, err)

	assert.ErrorIs(t, c.payments.Settle(ctx, p, 25000), ErrClosed)

	gotP, err := c.payments.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentPendingVerification, gotP.Status)
	gotQ, err := c.quotes.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.QuoteRejected, gotQ.Status)
	earned, err := c.earnings.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Zero(t, earned.EarnedCents)
}

func TestSettleStalePayment(t *testing.T) {
	c := newChain(t)
	ctx := context.Background()
	_, q := c.accepted(t, "c1", "w1")
	p := newPayment(q)
	_, err := c.payments.CreateIfNoLive(ctx, p)
	require.NoError(t, err)
	n, err := c.payments.UpdateStatusIf(ctx, p.ID, workflow.PaymentPendingVerification, workflow.PaymentRejected)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	assert.ErrorIs(t, c.payments.Settle(ctx, p, 25000), ErrStale)

	gotQ, err := c.quotes.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.QuoteAccepted, gotQ.Status, "rolled back")
	earned, err := c.earnings.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Zero(t, earned.EarnedCents)
}
