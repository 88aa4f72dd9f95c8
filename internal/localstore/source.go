package localstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"webshopsync/internal/entity"
	"webshopsync/internal/syncrun"
)

var stampColumns = []string{"created_dttm", "updated_dttm", "deleted_dttm"}

// table describes one export table. Columns must match the db tags of the
// entity it scans into.
type table struct {
	name    string
	key     string
	columns []string
}

func (t table) all() []string {
	return append(append([]string(nil), t.columns...), stampColumns...)
}

var (
	countryTable      = table{"store_country", "id", []string{"id", "code", "name", "name_en", "eu_member", "test"}}
	authorTable       = table{"store_author", "id", []string{"id", "name", "test"}}
	bindingTable      = table{"store_binding", "id", []string{"id", "name", "name_en", "test"}}
	manufacturerTable = table{"store_manufacturer", "id", []string{"id", "name", "website", "test"}}
	supplierTable     = table{"store_supplier", "id", []string{"id", "name", "email", "phone", "delivery_days", "test"}}
	seriesTable       = table{"store_product_series", "id", []string{"id", "manufacturer_id", "name", "test"}}
	categoryTable     = table{"store_product_category", "id", []string{"id", "parent_id", "name", "name_en", "sequence", "test"}}
	customerTable     = table{"store_customer", "store_id", []string{
		"store_id", "webshop_id", "email", "first_name", "last_name", "company", "street",
		"house_number", "postal_code", "city", "country_id", "phone", "newsletter", "teacher",
		"teacher_confirmed", "discount_pct", "test",
	}}
	productTable = table{"store_product", "id", []string{
		"id", "ean", "title", "subtitle", "description", "description_en", "price", "vat_rate",
		"stock", "weight_grams", "pages", "release_year", "manufacturer_id", "supplier_id",
		"binding_id", "series_id", "visible", "test",
	}}
)

// changed selects the rows created, updated or deleted after c.Since and
// the rows whose key is in c.Retry.
func (s *Store) changed(t table, c syncrun.Changes) sq.SelectBuilder {
	cond := sq.Or{
		sq.Gt{"created_dttm": c.Since},
		sq.Gt{"updated_dttm": c.Since},
		sq.Gt{"deleted_dttm": c.Since},
	}
	if len(c.Retry) > 0 {
		cond = append(cond, sq.Eq{t.key: c.Retry})
	}
	return s.sb.
		Select(t.all()...).
		From(t.name).
		Where(cond).
		OrderBy(t.key)
}

func (s *Store) Countries(ctx context.Context, c syncrun.Changes) ([]entity.Country, error) {
	return selectAll[entity.Country](ctx, s.db, s.changed(countryTable, c))
}

func (s *Store) Authors(ctx context.Context, c syncrun.Changes) ([]entity.Author, error) {
	return selectAll[entity.Author](ctx, s.db, s.changed(authorTable, c))
}

func (s *Store) Bindings(ctx context.Context, c syncrun.Changes) ([]entity.Binding, error) {
	return selectAll[entity.Binding](ctx, s.db, s.changed(bindingTable, c))
}

func (s *Store) Manufacturers(ctx context.Context, c syncrun.Changes) ([]entity.Manufacturer, error) {
	return selectAll[entity.Manufacturer](ctx, s.db, s.changed(manufacturerTable, c))
}

func (s *Store) Suppliers(ctx context.Context, c syncrun.Changes) ([]entity.Supplier, error) {
	return selectAll[entity.Supplier](ctx, s.db, s.changed(supplierTable, c))
}

func (s *Store) ProductSeries(ctx context.Context, c syncrun.Changes) ([]entity.ProductSeries, error) {
	return selectAll[entity.ProductSeries](ctx, s.db, s.changed(seriesTable, c))
}

func (s *Store) ProductCategories(ctx context.Context, c syncrun.Changes) ([]entity.ProductCategory, error) {
	return selectAll[entity.ProductCategory](ctx, s.db, s.changed(categoryTable, c))
}

func (s *Store) Customers(ctx context.Context, c syncrun.Changes) ([]entity.Customer, error) {
	return selectAll[entity.Customer](ctx, s.db, s.changed(customerTable, c))
}

// SaveCustomerWebshopID records the id the webshop assigned to a customer.
func (s *Store) SaveCustomerWebshopID(ctx context.Context, storeID, webshopID int64) error {
	n, err := s.exec(ctx, s.sb.
		Update(customerTable.name).
		Set("webshop_id", webshopID).
		Where(sq.Eq{"store_id": storeID}))
	if err != nil {
		return fmt.Errorf("save webshop id of customer %d: %w", storeID, err)
	}
	if n == 0 {
		return fmt.Errorf("customer %d: %w", storeID, ErrNotFound)
	}
	return nil
}
