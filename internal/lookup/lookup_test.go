package lookup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/taxbridge/taxbridge/internal/config"
	"github.com/taxbridge/taxbridge/internal/logger"
	"github.com/taxbridge/taxbridge/internal/testutil"
	"github.com/taxbridge/taxbridge/internal/types"
)

type LookupSuite struct {
	suite.Suite
	ctx   context.Context
	store *testutil.InMemoryRefCodeStore
	cache *Cache
}

func TestLookup(t *testing.T) {
	suite.Run(t, new(LookupSuite))
}

func (s *LookupSuite) SetupTest() {
	log, err := logger.NewLogger(config.GetDefaultConfig())
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.store = testutil.NewInMemoryRefCodeStore()
	s.cache = NewCache(s.store, log)
}

func (s *LookupSuite) TestBatchesOneQueryPerCategory() {
	s.store.Add(types.LookupUnitType, "ut1", "00")
	s.store.Add(types.LookupUnitType, "ut2", "99")
	s.store.Add(types.LookupTaxIncludedCode, "ti1", "1")

	s.cache.AddUnitTypeKey("ut1")
	s.cache.AddUnitTypeKey("ut2")
	s.cache.AddUnitTypeKey("ut1")
	s.cache.AddTaxIncludedCodeKey("ti1")

	s.NoError(s.cache.Process(s.ctx))
	s.Equal(2, s.store.QueryCount)

	s.Equal("00", s.cache.UnitType(s.ctx, "ut1"))
	s.Equal("99", s.cache.UnitType(s.ctx, "ut2"))
	s.Equal("1", s.cache.TaxIncludedCode(s.ctx, "ti1"))
}

func (s *LookupSuite) TestEmptyKeysAreIgnored() {
	s.cache.AddUnitTypeKey("")
	s.cache.AddSitusRuleKey("")

	s.NoError(s.cache.Process(s.ctx))
	s.Zero(s.store.QueryCount)
	s.Empty(s.cache.UnitType(s.ctx, ""))
}

func (s *LookupSuite) TestMissingKeyResolvesToEmpty() {
	s.cache.AddCustomerTypeKey("ct_missing")

	s.NoError(s.cache.Process(s.ctx))
	s.Empty(s.cache.CustomerType(s.ctx, "ct_missing"))
}

func (s *LookupSuite) TestResolvedKeysAreNotRequeried() {
	s.store.Add(types.LookupUnitType, "ut1", "00")

	s.cache.AddUnitTypeKey("ut1")
	s.NoError(s.cache.Process(s.ctx))
	s.Equal(1, s.store.QueryCount)

	s.cache.AddUnitTypeKey("ut1")
	s.NoError(s.cache.Process(s.ctx))
	s.Equal(1, s.store.QueryCount)
}

func (s *LookupSuite) TestCleanupDiscardsState() {
	s.store.Add(types.LookupUnitType, "ut1", "00")
	s.cache.AddUnitTypeKey("ut1")
	s.NoError(s.cache.Process(s.ctx))

	s.cache.Cleanup()
	s.Empty(s.cache.UnitType(s.ctx, "ut1"))
}

func (s *LookupSuite) TestDirectResolver() {
	log, err := logger.NewLogger(config.GetDefaultConfig())
	s.Require().NoError(err)

	s.store.Add(types.LookupTransactionType, "tt1", "050104")
	resolver := NewDirectResolver(s.store, log)

	s.Equal("050104", resolver.TransactionType(s.ctx, "tt1"))
	s.Empty(resolver.TransactionType(s.ctx, "tt_missing"))
	s.Empty(resolver.TransactionType(s.ctx, ""))
}
