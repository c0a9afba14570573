package service

import (
	"context"
	"sync"
	"testing"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/internal/testutil"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProofs struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (f *fakeProofs) Save(_ context.Context, uid string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	url := "https://proofs.test/" + uid
	f.saved[url] = data
	return url, nil
}

type fakeCache struct {
	mu          sync.Mutex
	sets        map[string][]workflow.ServiceType
	hits        int
	invalidated []string
}

func (c *fakeCache) Get(_ context.Context, uid string) ([]workflow.ServiceType, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.sets[uid]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, uid string, types []workflow.ServiceType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string][]workflow.ServiceType{}
	}
	c.sets[uid] = types
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sets, uid)
	c.invalidated = append(c.invalidated, uid)
	return nil
}

type fixture struct {
	db       *gorm.DB
	chatRepo repository.ChatRepository
	workers  WorkerService
	requests RequestService
	quotes   QuoteService
	chats    ChatService
	payments PaymentService
	notify   NotificationService
	earnings EarningsService
	proofs   *fakeProofs
	cache    *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.NewNop()

	requestRepo := repository.NewRequestRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	chatRepo := repository.NewChatRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	f := &fixture{db: db, chatRepo: chatRepo, proofs: &fakeProofs{}, cache: &fakeCache{}}
	f.notify = NewNotificationService(repository.NewNotificationRepository(db), log)
	f.earnings = NewEarningsService(repository.NewEarningRepository(db))
	f.workers = NewWorkerService(repository.NewWorkerRepository(db), f.cache, log)
	f.requests = NewRequestService(requestRepo, quoteRepo, f.workers, f.notify, log)
	f.quotes = NewQuoteService(quoteRepo, requestRepo, chatRepo, f.notify, log)
	f.chats = NewChatService(chatRepo, f.notify, log)
	f.payments = NewPaymentService(PaymentDeps{
		Payments: paymentRepo,
		Quotes:   quoteRepo,
		Requests: requestRepo,
		Chats:    chatRepo,
		Notify:   f.notify,
		Proofs:   f.proofs,
	}, log)
	return f
}

func (f *fixture) worker(t *testing.T, uid string, services ...string) {
	t.Helper()
	_, err := f.workers.ConfigureServices(context.Background(), uid, WorkerProfile{DisplayName: "Taller " + uid, Services: services})
	require.NoError(t, err)
}

func newRequestInput(client, worker string, st workflow.ServiceType) workflow.NewRequest {
	return workflow.NewRequest{
		ClientID:           client,
		WorkerID:           worker,
		ServiceType:        st,
		ProblemDescription: "El carro no enciende",
		VehicleInfo:        "Chevrolet Aveo 2012",
		Coordinates:        &workflow.Coordinates{Latitude: 10.49, Longitude: -66.87},
	}
}

func (f *fixture) request(t *testing.T, client, worker string, st workflow.ServiceType) *model.ServiceRequest {
	t.Helper()
	req, err := f.requests.Create(context.Background(), newRequestInput(client, worker, st))
	require.NoError(t, err)
	return req
}

func quoteInput(requestID uint64) workflow.NewQuote {
	return workflow.NewQuote{
		RequestID: requestID,
		Services: []workflow.ServiceLine{
			{Description: "Diagnóstico", Price: 100},
			{Description: "Reparación", Price: 100},
		},
		TransportFee:  50,
		EstimatedTime: "3 horas",
	}
}

// acceptedQuote runs request → quote → client acceptance for a fresh pair.
func (f *fixture) acceptedQuote(t *testing.T, client, worker string) *model.Quote {
	t.Helper()
	ctx := context.Background()
	req := f.request(t, client, worker, workflow.ServiceMechanic)
	q, err := f.quotes.Submit(ctx, worker, quoteInput(req.ID))
	require.NoError(t, err)
	q, err = f.quotes.Respond(ctx, q.ID, client, workflow.QuoteAccepted)
	require.NoError(t, err)
	return q
}

func paymentInput(quoteID uint64) workflow.NewPayment {
	return workflow.NewPayment{
		QuoteID:   quoteID,
		Amount:    250,
		Method:    workflow.MethodPagoMovil,
		Reference: "0102-123456",
		Date:      "2024-05-01",
		Time:      "10:30",
	}
}
