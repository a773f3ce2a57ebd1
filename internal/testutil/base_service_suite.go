package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/taxbridge/taxbridge/internal/config"
	"github.com/taxbridge/taxbridge/internal/domain/calllog"
	"github.com/taxbridge/taxbridge/internal/domain/dataexchange"
	"github.com/taxbridge/taxbridge/internal/domain/erp"
	"github.com/taxbridge/taxbridge/internal/domain/refcode"
	"github.com/taxbridge/taxbridge/internal/domain/settings"
	"github.com/taxbridge/taxbridge/internal/domain/taxmapping"
	"github.com/taxbridge/taxbridge/internal/logger"
	"github.com/taxbridge/taxbridge/internal/types"
	"github.com/taxbridge/taxbridge/internal/validator"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	SettingsRepo      settings.Repository
	RefCodeRepo       refcode.Repository
	MappingRepo       taxmapping.Repository
	NexusRepo         taxmapping.NexusRepository
	TaxCategoryRepo   taxmapping.TaxCategoryRepository
	CallLogRepo       calllog.Repository
	CallLogUpdateRepo calllog.UpdateRepository
	DataExchangeRepo  dataexchange.Repository
	ERPRepo           erp.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	stores     Stores
	httpClient *MockHTTPClient
	logger     *logger.Logger
	config     *config.Configuration
	now        time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		SettingsRepo:      NewInMemorySettingsStore(),
		RefCodeRepo:       NewInMemoryRefCodeStore(),
		MappingRepo:       NewInMemoryTaxMappingStore(),
		NexusRepo:         NewInMemoryNexusStore(),
		TaxCategoryRepo:   NewInMemoryTaxCategoryStore(),
		CallLogRepo:       NewInMemoryCallLogStore(),
		CallLogUpdateRepo: NewInMemoryCallLogUpdateStore(),
		DataExchangeRepo:  NewInMemoryDataExchangeStore(),
		ERPRepo:           NewInMemoryERPStore(),
	}
	s.httpClient = NewMockHTTPClient()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.SettingsRepo.(*InMemorySettingsStore).Clear()
	s.stores.RefCodeRepo.(*InMemoryRefCodeStore).Clear()
	s.stores.MappingRepo.(*InMemoryTaxMappingStore).Clear()
	s.stores.NexusRepo.(*InMemoryNexusStore).Clear()
	s.stores.TaxCategoryRepo.(*InMemoryTaxCategoryStore).Clear()
	s.stores.CallLogRepo.(*InMemoryCallLogStore).Clear()
	s.stores.CallLogUpdateRepo.(*InMemoryCallLogUpdateStore).Clear()
	s.stores.DataExchangeRepo.(*InMemoryDataExchangeStore).Clear()
	s.stores.ERPRepo.(*InMemoryERPStore).Clear()
	s.httpClient.Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetHTTPClient returns the mock HTTP client
func (s *BaseServiceTestSuite) GetHTTPClient() *MockHTTPClient {
	return s.httpClient
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
