package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	domainErrors "github.com/getdryv/checkout-service/internal/domain/errors"
	"github.com/getdryv/checkout-service/internal/domain/model"
	"github.com/getdryv/checkout-service/internal/usecase"
)

// MockCancellationTaskRepository is a mock implementation of repository.CancellationTaskRepository
type MockCancellationTaskRepository struct {
	mock.Mock
}

func (m *MockCancellationTaskRepository) Enqueue(ctx context.Context, task *model.CancellationTask) (bool, error) {
	args := m.Called(ctx, task)
	return args.Bool(0), args.Error(1)
}

func (m *MockCancellationTaskRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*model.CancellationTask, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationTask), args.Error(1)
}

func (m *MockCancellationTaskRepository) GetDue(ctx context.Context, limit int) ([]*model.CancellationTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CancellationTask), args.Error(1)
}

func (m *MockCancellationTaskRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCancellationTaskRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	args := m.Called(ctx, id, cause)
	return args.Error(0)
}

// MockWebhookEventRepository is a mock implementation of repository.WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) Record(ctx context.Context, eventID, eventType string, data json.RawMessage) (bool, error) {
	args := m.Called(ctx, eventID, eventType)
	return args.Bool(0), args.Error(1)
}

func completedEventPayload(eventID, subscriptionID string, cycles int, created time.Time) []byte {
	payload := fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"created": %d,
		"data": {
			"object": {
				"id": "cs_test_wh",
				"object": "checkout.session",
				"mode": "subscription",
				"subscription": %q,
				"metadata": {
					"offerId": "classique-20h",
					"mode": "%dx",
					"cycles": "%d"
				}
			}
		}
	}`, eventID, created.Unix(), subscriptionID, cycles, cycles)
	return []byte(payload)
}

func newWebhookTestStack(secret string) (*WebhookHandler, *MockCancellationTaskRepository, *MockWebhookEventRepository) {
	taskRepo := new(MockCancellationTaskRepository)
	eventRepo := new(MockWebhookEventRepository)
	controller := usecase.NewPlanController(taskRepo, eventRepo, zap.NewNop())
	return NewWebhookHandler(zap.NewNop(), secret, controller), taskRepo, eventRepo
}

func postWebhook(body []byte, signature string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment-events", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func signPayload(body []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, body, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func TestWebhookHandler_UnsignedDevelopmentMode(t *testing.T) {
	handler, taskRepo, eventRepo := newWebhookTestStack("")

	eventRepo.On("Record", mock.Anything, "evt_unsigned_1", "checkout.session.completed").
		Return(true, nil)
	taskRepo.On("Enqueue", mock.Anything, mock.Anything).Return(true, nil)

	body := completedEventPayload("evt_unsigned_1", "sub_test_1", 3, time.Now())
	c, rec := postWebhook(body, "")

	require.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)
	taskRepo.AssertCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	handler, taskRepo, eventRepo := newWebhookTestStack("whsec_test_secret")

	body := completedEventPayload("evt_bad_sig", "sub_test_2", 2, time.Now())
	c, rec := postWebhook(body, fmt.Sprintf("t=%d,v1=deadbeef", time.Now().Unix()))

	require.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), domainErrors.ErrInvalidSignature.Error())

	// a rejected delivery must leave no trace
	eventRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	taskRepo.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	handler, _, eventRepo := newWebhookTestStack("whsec_test_secret")

	body := completedEventPayload("evt_no_sig", "sub_test_3", 2, time.Now())
	c, rec := postWebhook(body, "")

	require.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	eventRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_ValidSignature(t *testing.T) {
	const secret = "whsec_test_secret"
	handler, taskRepo, eventRepo := newWebhookTestStack(secret)

	eventRepo.On("Record", mock.Anything, "evt_signed_1", "checkout.session.completed").
		Return(true, nil)

	var enqueued *model.CancellationTask
	taskRepo.On("Enqueue", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			enqueued = args.Get(1).(*model.CancellationTask)
		}).
		Return(true, nil)

	completed := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	body := completedEventPayload("evt_signed_1", "sub_test_4", 3, completed)
	c, rec := postWebhook(body, signPayload(body, secret, time.Now()))

	require.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, enqueued)
	assert.Equal(t, "sub_test_4", enqueued.SubscriptionID)
	assert.Equal(t, 3, enqueued.Cycles)

	// two calendar months after the completion instant carried by the event
	base := time.Unix(completed.Unix(), 0)
	assert.Equal(t, base.Year(), enqueued.CancelAt.Year())
	assert.Equal(t, base.Month()+2, enqueued.CancelAt.Month())
	assert.Equal(t, base.Day(), enqueued.CancelAt.Day())
}

func TestWebhookHandler_PersistenceFailureNotAcknowledged(t *testing.T) {
	handler, taskRepo, eventRepo := newWebhookTestStack("")

	eventRepo.On("Record", mock.Anything, "evt_db_down", "checkout.session.completed").
		Return(true, nil)
	taskRepo.On("Enqueue", mock.Anything, mock.Anything).
		Return(false, assert.AnError)

	body := completedEventPayload("evt_db_down", "sub_test_5", 4, time.Now())
	c, rec := postWebhook(body, "")

	require.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookHandler_EventWithoutDataIsAcked(t *testing.T) {
	handler, taskRepo, eventRepo := newWebhookTestStack("")

	eventRepo.On("Record", mock.Anything, "evt_no_data", "customer.created").
		Return(true, nil)

	// a parseable event that carries no data block must be acked, not 500ed
	body := []byte(`{"id":"evt_no_data","type":"customer.created"}`)
	c, rec := postWebhook(body, "")

	require.NotPanics(t, func() {
		require.NoError(t, handler.HandleWebhook(c))
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)

	eventRepo.AssertExpectations(t)
	taskRepo.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestWebhookHandler_MalformedBody(t *testing.T) {
	handler, _, eventRepo := newWebhookTestStack("")

	c, rec := postWebhook([]byte("not json at all"), "")

	require.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	eventRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}
