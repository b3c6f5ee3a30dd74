// Package testutil holds testify mocks and fixtures shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/api"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/config"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/middleware"
)

// ==================== MOCK USER REPOSITORY ====================

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// ==================== MOCK GADGET REPOSITORY ====================

// MockGadgetRepository implements repository.GadgetRepository for testing
type MockGadgetRepository struct {
	mock.Mock
}

func (m *MockGadgetRepository) Create(ctx context.Context, gadget *models.Gadget) error {
	args := m.Called(ctx, gadget)
	return args.Error(0)
}

func (m *MockGadgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gadget, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gadget), args.Error(1)
}

func (m *MockGadgetRepository) List(ctx context.Context, filter repository.GadgetFilter) ([]models.Gadget, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Gadget), args.Error(1)
}

func (m *MockGadgetRepository) Save(ctx context.Context, gadget *models.Gadget) error {
	args := m.Called(ctx, gadget)
	return args.Error(0)
}

// ==================== MOCK AUTH SERVICE ====================

// MockAuthService implements service.AuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) ValidateAccessToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

// ==================== MOCK GADGET SERVICE ====================

// MockGadgetService implements service.GadgetService for testing
type MockGadgetService struct {
	mock.Mock
}

func (m *MockGadgetService) ListGadgets(ctx context.Context, status *models.GadgetStatus) ([]service.GadgetReport, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.GadgetReport), args.Error(1)
}

func (m *MockGadgetService) CreateGadget(ctx context.Context, name string, status *models.GadgetStatus) (*models.Gadget, error) {
	args := m.Called(ctx, name, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gadget), args.Error(1)
}

func (m *MockGadgetService) UpdateGadget(ctx context.Context, id uuid.UUID, changes service.GadgetChanges) (*models.Gadget, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gadget), args.Error(1)
}

func (m *MockGadgetService) DecommissionGadget(ctx context.Context, id uuid.UUID) (*models.Gadget, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gadget), args.Error(1)
}

func (m *MockGadgetService) SelfDestructGadget(ctx context.Context, id uuid.UUID) (*service.SelfDestructResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SelfDestructResult), args.Error(1)
}

// ==================== TEST CONFIGURATION ====================

// TestConfig returns a config suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		ApiServicePort:    "3000",
		JWTSecret:         "test-secret-key-for-testing-purposes",
		TokenExpiration:   86400,
		BcryptCost:        4,
		RateLimitRequests: 100,
		RateLimitWindow:   900,
	}
}

// TestLogger returns a silent logger for testing
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestDB opens an in-memory SQLite store with the application schema
func NewTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Gadget{}); err != nil {
		return nil, err
	}
	return db, nil
}

// ==================== ROUTER SETUP HELPERS ====================

// SetupRouterWithMocks creates a router around the given services with rate limiting disabled
func SetupRouterWithMocks(authService service.AuthService, gadgetService service.GadgetService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := TestLogger()

	authHandler := handler.NewAuthHandler(authService, logger)
	gadgetHandler := handler.NewGadgetHandler(gadgetService, logger)
	authMiddleware := middleware.NewAuthMiddleware(authService, logger)

	return api.SetupRouter(authHandler, gadgetHandler, authMiddleware, middleware.NewNoOpRateLimiter(logger), logger)
}

// SetupRouterWithDefaultAuth creates a router whose auth mock accepts any token as TestClaims
func SetupRouterWithDefaultAuth(gadgetService service.GadgetService) *gin.Engine {
	mockAuthService := new(MockAuthService)
	mockAuthService.On("ValidateAccessToken", mock.Anything).Return(TestClaims(), nil)
	return SetupRouterWithMocks(mockAuthService, gadgetService)
}

// TestClaims returns the identity used by SetupRouterWithDefaultAuth
func TestClaims() *service.Claims {
	return &service.Claims{
		UserID: "7d1e3a34-6c1b-4f0e-9a57-3c2b8a0d9f10",
		Email:  "agent@imf.gov",
	}
}
