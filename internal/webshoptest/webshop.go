// Package webshoptest is an in-memory webshop speaking the same text
// protocol as the real one, for tests that exercise the client end to end.
package webshoptest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"webshopsync/internal/entity"
	"webshopsync/internal/webshop"
	"webshopsync/internal/xmlcodec"
)

// ErrConnectionRefused is what injected transport faults return.
var ErrConnectionRefused = errors.New("dial tcp: connection refused")

type Options struct {
	// MaxResultSet makes getUpdatedSince refuse results with more rows.
	// Zero means unlimited.
	MaxResultSet int
	// AckUpdates answers updates with a bare ok instead of echoing the
	// stored record.
	AckUpdates bool
	Now        func() time.Time
}

// Webshop implements webshop.Transport.
type Webshop struct {
	mu     sync.Mutex
	opts   Options
	faults int
	calls  []webshop.Request

	tables     map[entity.Kind]kindTable
	customers  *table[entity.Customer]
	products   *table[entity.Product]
	categories *table[entity.ProductCategory]

	resetEmails   []int64
	confirmations []int64
}

func New(opts Options) *Webshop {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	w := &Webshop{opts: opts}

	w.customers = newTable(xmlcodec.CustomerCodec(), "webshop_id",
		func(c *entity.Customer) *int64 { return &c.WebshopID },
		func(c *entity.Customer) *entity.Stamps { return &c.Stamps },
		func(c *entity.Customer) bool { return c.Test })
	w.customers.match = w.customerByStoreID

	w.products = newTable(xmlcodec.ProductCodec(), "id",
		func(p *entity.Product) *int64 { return &p.ID },
		func(p *entity.Product) *entity.Stamps { return &p.Stamps },
		func(p *entity.Product) bool { return p.Test })

	w.categories = newTable(xmlcodec.ProductCategoryCodec(), "id",
		func(c *entity.ProductCategory) *int64 { return &c.ID },
		func(c *entity.ProductCategory) *entity.Stamps { return &c.Stamps },
		func(c *entity.ProductCategory) bool { return c.Test })
	w.categories.guard = w.categoryInUse

	w.tables = map[entity.Kind]kindTable{
		entity.KindAuthor: newTable(xmlcodec.AuthorCodec(), "id",
			func(a *entity.Author) *int64 { return &a.ID },
			func(a *entity.Author) *entity.Stamps { return &a.Stamps },
			func(a *entity.Author) bool { return a.Test }),
		entity.KindBinding: newTable(xmlcodec.BindingCodec(), "id",
			func(b *entity.Binding) *int64 { return &b.ID },
			func(b *entity.Binding) *entity.Stamps { return &b.Stamps },
			func(b *entity.Binding) bool { return b.Test }),
		entity.KindCountry: newTable(xmlcodec.CountryCodec(), "id",
			func(c *entity.Country) *int64 { return &c.ID },
			func(c *entity.Country) *entity.Stamps { return &c.Stamps },
			func(c *entity.Country) bool { return c.Test }),
		entity.KindManufacturer: newTable(xmlcodec.ManufacturerCodec(), "id",
			func(m *entity.Manufacturer) *int64 { return &m.ID },
			func(m *entity.Manufacturer) *entity.Stamps { return &m.Stamps },
			func(m *entity.Manufacturer) bool { return m.Test }),
		entity.KindProductSeries: newTable(xmlcodec.ProductSeriesCodec(), "id",
			func(s *entity.ProductSeries) *int64 { return &s.ID },
			func(s *entity.ProductSeries) *entity.Stamps { return &s.Stamps },
			func(s *entity.ProductSeries) bool { return s.Test }),
		entity.KindSupplier: newTable(xmlcodec.SupplierCodec(), "id",
			func(s *entity.Supplier) *int64 { return &s.ID },
			func(s *entity.Supplier) *entity.Stamps { return &s.Stamps },
			func(s *entity.Supplier) bool { return s.Test }),
		entity.KindCustomer:        w.customers,
		entity.KindProduct:         w.products,
		entity.KindProductCategory: w.categories,
	}
	return w
}

// FailNext makes the next n calls fail as if the webshop were unreachable.
func (w *Webshop) FailNext(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.faults = n
}

// Calls returns every request that reached the webshop, faults included.
func (w *Webshop) Calls() []webshop.Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]webshop.Request(nil), w.calls...)
}

// CallsTo counts the requests for one kind and action.
func (w *Webshop) CallsTo(kind entity.Kind, action string) int {
	n := 0
	for _, c := range w.Calls() {
		if c.Kind == kind && c.Action == action {
			n++
		}
	}
	return n
}

// Product returns the stored product, bypassing the protocol.
func (w *Webshop) Product(id int64) (entity.Product, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.products.find(id)
	if !ok {
		return entity.Product{}, false
	}
	return *p, true
}

func (w *Webshop) PasswordResets() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int64(nil), w.resetEmails...)
}

func (w *Webshop) Do(ctx context.Context, req webshop.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls = append(w.calls, req)
	if w.faults > 0 {
		w.faults--
		return "", ErrConnectionRefused
	}

	now := w.opts.Now().UTC().Truncate(time.Second)
	if req.Kind == "maintenance" {
		return w.maintenance(req), nil
	}
	if req.Kind == entity.KindCustomer {
		if out, ok := w.customerAction(req); ok {
			return out, nil
		}
	}

	t, ok := w.tables[req.Kind]
	if !ok {
		return fmt.Sprintf("error: unknown type %s", req.Kind), nil
	}

	switch req.Action {
	case "getById":
		id, err := strconv.ParseInt(req.Params.Get("id"), 10, 64)
		if err != nil {
			return "error: invalid id", nil
		}
		return t.get(id), nil
	case "getUpdatedSince":
		since, err := time.ParseInLocation(xmlcodec.TimeLayout, req.Params.Get("since"), time.UTC)
		if err != nil {
			return "error: invalid since", nil
		}
		return t.listSince(since, w.opts.MaxResultSet), nil
	case "deleteById":
		id, err := strconv.ParseInt(req.Params.Get("id"), 10, 64)
		if err != nil {
			return "error: invalid id", nil
		}
		return t.delete(id, now), nil
	case req.Kind.UpdateAction():
		out := t.update(req.Params.Get("xml"), now)
		if w.opts.AckUpdates && !strings.HasPrefix(out, "error") {
			return "<string>ok</string>", nil
		}
		return out, nil
	default:
		return fmt.Sprintf("error: unknown action %s", req.Action), nil
	}
}

func (w *Webshop) maintenance(req webshop.Request) string {
	switch req.Action {
	case "deleteTestData":
		kind, ok := entity.ParseKind(req.Params.Get("table"))
		if !ok {
			return "error: unknown table " + req.Params.Get("table")
		}
		w.tables[kind].purgeTest()
		return "ok"
	case "deleteAllTestData":
		for _, t := range w.tables {
			t.purgeTest()
		}
		return "ok"
	default:
		return "error: unknown action " + req.Action
	}
}

func (w *Webshop) customerAction(req webshop.Request) (string, bool) {
	switch req.Action {
	case "getByStoreId":
		storeID, _ := strconv.ParseInt(req.Params.Get("store_id"), 10, 64)
		for _, id := range w.customers.ids() {
			if w.customers.rows[id].StoreID == storeID {
				return w.customers.render(w.customers.rows[id]), true
			}
		}
		return "error: customer not found", true
	case "getByEmail":
		matches := w.customersByEmail(req.Params.Get("email"))
		switch len(matches) {
		case 0:
			return "error: customer not found", true
		case 1:
			return w.customers.render(&matches[0]), true
		default:
			return "error: email is not unique", true
		}
	case "getAllByEmail":
		out, err := w.customers.codec.MarshalList(w.customersByEmail(req.Params.Get("email")))
		if err != nil {
			return "error: " + err.Error(), true
		}
		return string(out), true
	case "sendPasswordResetEmail", "confirmTeacherRegistration":
		id, _ := strconv.ParseInt(req.Params.Get("id"), 10, 64)
		c, ok := w.customers.find(id)
		if !ok {
			return errNotFound, true
		}
		if req.Action == "sendPasswordResetEmail" {
			w.resetEmails = append(w.resetEmails, id)
			return "ok", true
		}
		if !c.Teacher {
			return "error: customer is not a teacher", true
		}
		c.TeacherConfirmed = true
		w.confirmations = append(w.confirmations, id)
		return "ok", true
	}
	return "", false
}

func (w *Webshop) customersByEmail(email string) []entity.Customer {
	out := []entity.Customer{}
	for _, id := range w.customers.ids() {
		if c := w.customers.rows[id]; strings.EqualFold(c.Email, email) {
			out = append(out, *c)
		}
	}
	return out
}

func (w *Webshop) customerByStoreID(c *entity.Customer) (int64, bool) {
	for id, row := range w.customers.rows {
		if row.StoreID == c.StoreID {
			return id, true
		}
	}
	return 0, false
}

func (w *Webshop) categoryInUse(id int64) string {
	for _, pid := range w.products.ids() {
		p := w.products.rows[pid]
		if p.Deleted() {
			continue
		}
		for _, ref := range p.ProductCategories {
			if ref.ID == id {
				return fmt.Sprintf("error: category %d is used by product %d", id, p.ID)
			}
		}
	}
	return ""
}
