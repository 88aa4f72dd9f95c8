package repository

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"webshopsync/internal/entity"
	"webshopsync/internal/reconcile"
	"webshopsync/internal/webshop"
	"webshopsync/internal/xmlcodec"
)

const (
	// MaintenanceKind is the type token of the test-data purge actions.
	MaintenanceKind entity.Kind = "maintenance"

	ActionDeleteTestData    = "deleteTestData"
	ActionDeleteAllTestData = "deleteAllTestData"
)

// Maintenance removes records flagged Test. Only for verification
// environments.
type Maintenance struct {
	caller Caller
}

func NewMaintenance(caller Caller) *Maintenance {
	return &Maintenance{caller: caller}
}

func (m *Maintenance) PurgeTestData(ctx context.Context, kind entity.Kind) error {
	return perform(ctx, m.caller, webshop.Request{
		Kind:   MaintenanceKind,
		Action: ActionDeleteTestData,
		Params: url.Values{"table": {kind.Table()}},
	})
}

func (m *Maintenance) PurgeAllTestData(ctx context.Context) error {
	return perform(ctx, m.caller, webshop.Request{
		Kind:   MaintenanceKind,
		Action: ActionDeleteAllTestData,
	})
}

// Set holds one repository per kind, all sharing a client.
type Set struct {
	Authors           *Repository[entity.Author]
	Bindings          *Repository[entity.Binding]
	Countries         *Repository[entity.Country]
	Customers         *CustomerRepository
	Manufacturers     *Repository[entity.Manufacturer]
	Products          *ProductRepository
	ProductCategories *Repository[entity.ProductCategory]
	ProductSeries     *Repository[entity.ProductSeries]
	Suppliers         *Repository[entity.Supplier]
	Maintenance       *Maintenance
}

func NewSet(caller Caller, assets reconcile.Assets, cfg reconcile.Config, log zerolog.Logger) *Set {
	return &Set{
		Authors:           New(caller, xmlcodec.AuthorCodec()),
		Bindings:          New(caller, xmlcodec.BindingCodec()),
		Countries:         New(caller, xmlcodec.CountryCodec()),
		Customers:         NewCustomerRepository(caller),
		Manufacturers:     New(caller, xmlcodec.ManufacturerCodec()),
		Products:          NewProductRepository(caller, assets, cfg, log),
		ProductCategories: New(caller, xmlcodec.ProductCategoryCodec()),
		ProductSeries:     New(caller, xmlcodec.ProductSeriesCodec()),
		Suppliers:         New(caller, xmlcodec.SupplierCodec()),
		Maintenance:       NewMaintenance(caller),
	}
}

// DeleteByID deletes a record of any kind. For customers id is the
// WebshopID.
func (s *Set) DeleteByID(ctx context.Context, kind entity.Kind, id int64) error {
	switch kind {
	case entity.KindAuthor:
		return s.Authors.DeleteByID(ctx, id)
	case entity.KindBinding:
		return s.Bindings.DeleteByID(ctx, id)
	case entity.KindCountry:
		return s.Countries.DeleteByID(ctx, id)
	case entity.KindCustomer:
		return s.Customers.DeleteByID(ctx, id)
	case entity.KindManufacturer:
		return s.Manufacturers.DeleteByID(ctx, id)
	case entity.KindProduct:
		return s.Products.DeleteByID(ctx, id)
	case entity.KindProductCategory:
		return s.ProductCategories.DeleteByID(ctx, id)
	case entity.KindProductSeries:
		return s.ProductSeries.DeleteByID(ctx, id)
	case entity.KindSupplier:
		return s.Suppliers.DeleteByID(ctx, id)
	default:
		return &entity.InvalidError{Kind: kind, Fields: []entity.FieldError{{Field: "kind", Message: "unknown kind"}}}
	}
}
