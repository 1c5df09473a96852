package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/getdryv/checkout-service/internal/domain/model"
)

func dueTask(subscriptionID string, cancelAt time.Time) *model.CancellationTask {
	return &model.CancellationTask{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		Cycles:         3,
		CancelAt:       cancelAt,
		Status:         model.TaskStatusPending,
	}
}

func TestCancellationWorker_ProcessDue(t *testing.T) {
	taskRepo := new(MockCancellationTaskRepository)
	mockProvider := new(MockCheckoutProvider)
	worker := NewCancellationWorker(taskRepo, mockProvider, zap.NewNop(), 0, 0, 0)

	cancelAt := time.Date(2025, time.May, 15, 10, 30, 0, 0, time.UTC)
	task := dueTask("sub_test_123", cancelAt)

	taskRepo.On("GetDue", mock.Anything, 20).Return([]*model.CancellationTask{task}, nil)
	mockProvider.On("ScheduleCancellation", mock.Anything, "sub_test_123", cancelAt).Return(nil)
	taskRepo.On("MarkCompleted", mock.Anything, task.ID).Return(nil)

	completed := worker.ProcessDue(context.Background())

	assert.Equal(t, 1, completed)
	taskRepo.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestCancellationWorker_ProviderFailureIsRescheduled(t *testing.T) {
	taskRepo := new(MockCancellationTaskRepository)
	mockProvider := new(MockCheckoutProvider)
	worker := NewCancellationWorker(taskRepo, mockProvider, zap.NewNop(), 0, 0, 0)

	task := dueTask("sub_test_456", time.Now().Add(time.Hour))
	provErr := fmt.Errorf("stripe unavailable")

	taskRepo.On("GetDue", mock.Anything, 20).Return([]*model.CancellationTask{task}, nil)
	mockProvider.On("ScheduleCancellation", mock.Anything, "sub_test_456", task.CancelAt).Return(provErr)
	taskRepo.On("MarkFailed", mock.Anything, task.ID, provErr).Return(nil)

	completed := worker.ProcessDue(context.Background())

	assert.Equal(t, 0, completed)
	taskRepo.AssertExpectations(t)
	taskRepo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything)
}

func TestCancellationWorker_EmptyBatch(t *testing.T) {
	taskRepo := new(MockCancellationTaskRepository)
	mockProvider := new(MockCheckoutProvider)
	worker := NewCancellationWorker(taskRepo, mockProvider, zap.NewNop(), 0, 0, 0)

	taskRepo.On("GetDue", mock.Anything, 20).Return([]*model.CancellationTask{}, nil)

	assert.Equal(t, 0, worker.ProcessDue(context.Background()))
	mockProvider.AssertNotCalled(t, "ScheduleCancellation", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancellationWorker_PartialBatch(t *testing.T) {
	taskRepo := new(MockCancellationTaskRepository)
	mockProvider := new(MockCheckoutProvider)
	worker := NewCancellationWorker(taskRepo, mockProvider, zap.NewNop(), 0, 0, 0)

	good := dueTask("sub_ok", time.Now().Add(time.Hour))
	bad := dueTask("sub_bad", time.Now().Add(2*time.Hour))
	provErr := fmt.Errorf("stripe unavailable")

	taskRepo.On("GetDue", mock.Anything, 20).Return([]*model.CancellationTask{good, bad}, nil)
	mockProvider.On("ScheduleCancellation", mock.Anything, "sub_ok", good.CancelAt).Return(nil)
	mockProvider.On("ScheduleCancellation", mock.Anything, "sub_bad", bad.CancelAt).Return(provErr)
	taskRepo.On("MarkCompleted", mock.Anything, good.ID).Return(nil)
	taskRepo.On("MarkFailed", mock.Anything, bad.ID, provErr).Return(nil)

	completed := worker.ProcessDue(context.Background())

	assert.Equal(t, 1, completed)
	taskRepo.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}
