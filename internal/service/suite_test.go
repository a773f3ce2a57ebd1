package service

import (
	"time"

	"github.com/taxbridge/taxbridge/internal/domain/settings"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/testutil"
)

const (
	testSubsidiary = "1"
	testServiceURL = "https://api.taxsvc.test/Services/V01"
)

// testServiceParams wires the in-memory stores and mock transport into the
// shared dependency struct.
func testServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		SettingsRepo:      stores.SettingsRepo,
		RefCodeRepo:       stores.RefCodeRepo,
		MappingRepo:       stores.MappingRepo,
		NexusRepo:         stores.NexusRepo,
		TaxCategoryRepo:   stores.TaxCategoryRepo,
		CallLogRepo:       stores.CallLogRepo,
		CallLogUpdateRepo: stores.CallLogUpdateRepo,
		DataExchangeRepo:  stores.DataExchangeRepo,
		ERPRepo:           stores.ERPRepo,
		TaxClient:         taxsvc.NewClient(s.GetHTTPClient(), s.GetLogger()),
	}
}

// testConfiguration is a minimal valid subsidiary configuration.
func testConfiguration() *settings.Configuration {
	return &settings.Configuration{
		ID:         "cfg_1",
		Subsidiary: testSubsidiary,
		Connection: settings.ConnectionSettings{
			URL:           testServiceURL,
			ClientNumber:  "000000123",
			ValidationKey: "secret-key",
		},
		DefaultShipFromAddress: taxsvc.NewAddress("100 Main St", "", "Riverwoods", "IL", "60015", "US"),
		EcomDefaults:           settings.ChannelDefaults{Enable: true},
		SHDefaults:             settings.SHDefaults{Enable: true},
	}
}

func mustDate(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}
