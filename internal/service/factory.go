package service

import (
	"github.com/taxbridge/taxbridge/internal/config"
	"github.com/taxbridge/taxbridge/internal/domain/calllog"
	"github.com/taxbridge/taxbridge/internal/domain/dataexchange"
	"github.com/taxbridge/taxbridge/internal/domain/erp"
	"github.com/taxbridge/taxbridge/internal/domain/refcode"
	"github.com/taxbridge/taxbridge/internal/domain/settings"
	"github.com/taxbridge/taxbridge/internal/domain/taxmapping"
	"github.com/taxbridge/taxbridge/internal/logger"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	SettingsRepo      settings.Repository
	RefCodeRepo       refcode.Repository
	MappingRepo       taxmapping.Repository
	NexusRepo         taxmapping.NexusRepository
	TaxCategoryRepo   taxmapping.TaxCategoryRepository
	CallLogRepo       calllog.Repository
	CallLogUpdateRepo calllog.UpdateRepository
	DataExchangeRepo  dataexchange.Repository
	ERPRepo           erp.Repository

	// External clients
	TaxClient taxsvc.Client
}
