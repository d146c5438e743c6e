package mocks

import (
	"context"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockRuleRepository is a mock implementation of persistence.RuleRepository interface.
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ActiveRulesByEvent(ctx context.Context, event models.EventName) ([]*models.WorkflowRule, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowRule), args.Error(1)
}

func (m *MockRuleRepository) List(ctx context.Context, opts persistence.ListRulesOptions) ([]*models.WorkflowRule, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowRule), args.Error(1)
}

func (m *MockRuleRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowRule), args.Error(1)
}

func (m *MockRuleRepository) Save(ctx context.Context, rule *models.WorkflowRule) error {
	args := m.Called(ctx, rule)

	return args.Error(0)
}

func (m *MockRuleRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)

	return args.Error(0)
}

// MockExecutionRepository is a mock implementation of persistence.ExecutionRepository interface.
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) Create(ctx context.Context, execution *models.WorkflowExecution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockExecutionRepository) Complete(ctx context.Context, execution *models.WorkflowExecution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowExecution), args.Error(1)
}

func (m *MockExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowExecution), args.Error(1)
}

func (m *MockExecutionRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*models.WorkflowExecution, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowExecution), args.Error(1)
}

// MockTaskRepository is a mock implementation of persistence.TaskRepository interface.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)

	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Task), args.Error(1)
}

// MockReminderRepository is a mock implementation of persistence.ReminderRepository interface.
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	args := m.Called(ctx, reminder)

	return args.Error(0)
}

func (m *MockReminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Reminder), args.Error(1)
}

// MockOpportunityRepository is a mock implementation of persistence.OpportunityRepository interface.
type MockOpportunityRepository struct {
	mock.Mock
}

func (m *MockOpportunityRepository) UpdatePriority(ctx context.Context, opportunityID, priority string) error {
	args := m.Called(ctx, opportunityID, priority)

	return args.Error(0)
}

func (m *MockOpportunityRepository) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Opportunity), args.Error(1)
}

// MockClientRepository is a mock implementation of persistence.ClientRepository interface.
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) UpdateAssignedSalesperson(ctx context.Context, clientID, salespersonID string) error {
	args := m.Called(ctx, clientID, salespersonID)

	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Client), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	ruleRepo        *MockRuleRepository
	executionRepo   *MockExecutionRepository
	taskRepo        *MockTaskRepository
	reminderRepo    *MockReminderRepository
	opportunityRepo *MockOpportunityRepository
	clientRepo      *MockClientRepository
}

// NewMockPersistence creates a new MockPersistence with all mock repositories.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		ruleRepo:        &MockRuleRepository{},
		executionRepo:   &MockExecutionRepository{},
		taskRepo:        &MockTaskRepository{},
		reminderRepo:    &MockReminderRepository{},
		opportunityRepo: &MockOpportunityRepository{},
		clientRepo:      &MockClientRepository{},
	}
}

// GetMockRuleRepository returns the underlying mock rule repository for setting up expectations.
func (m *MockPersistence) GetMockRuleRepository() *MockRuleRepository { return m.ruleRepo }

func (m *MockPersistence) GetMockExecutionRepository() *MockExecutionRepository {
	return m.executionRepo
}

func (m *MockPersistence) GetMockTaskRepository() *MockTaskRepository { return m.taskRepo }

func (m *MockPersistence) GetMockReminderRepository() *MockReminderRepository { return m.reminderRepo }

func (m *MockPersistence) GetMockOpportunityRepository() *MockOpportunityRepository {
	return m.opportunityRepo
}

func (m *MockPersistence) GetMockClientRepository() *MockClientRepository { return m.clientRepo }

func (m *MockPersistence) RuleRepository() persistence.RuleRepository { return m.ruleRepo }

func (m *MockPersistence) ExecutionRepository() persistence.ExecutionRepository {
	return m.executionRepo
}

func (m *MockPersistence) TaskRepository() persistence.TaskRepository { return m.taskRepo }

func (m *MockPersistence) ReminderRepository() persistence.ReminderRepository { return m.reminderRepo }

func (m *MockPersistence) OpportunityRepository() persistence.OpportunityRepository {
	return m.opportunityRepo
}

func (m *MockPersistence) ClientRepository() persistence.ClientRepository { return m.clientRepo }

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
