package xmlcodec

import (
	"encoding/xml"

	"webshopsync/internal/entity"
)

var stampScalars = []string{"created_dttm", "updated_dttm", "deleted_dttm"}

func scalars(names ...string) []string {
	return append(names, stampScalars...)
}

type wireStamps struct {
	CreatedDttm string `xml:"created_dttm,omitempty"`
	UpdatedDttm string `xml:"updated_dttm,omitempty"`
	DeletedDttm string `xml:"deleted_dttm,omitempty"`
}

func stampsToWire(s entity.Stamps) wireStamps {
	return wireStamps{
		CreatedDttm: formatTime(s.CreatedDttm),
		UpdatedDttm: formatTime(s.UpdatedDttm),
		DeletedDttm: formatTime(s.DeletedDttm),
	}
}

func (p *fieldParser) stamps(w wireStamps) entity.Stamps {
	return entity.Stamps{
		CreatedDttm: p.time("created_dttm", w.CreatedDttm),
		UpdatedDttm: p.time("updated_dttm", w.UpdatedDttm),
		DeletedDttm: p.time("deleted_dttm", w.DeletedDttm),
	}
}

// Author

type wireAuthor struct {
	XMLName xml.Name `xml:"author"`
	ID      string   `xml:"id,omitempty"`
	Name    string   `xml:"name,omitempty"`
	Test    string   `xml:"test"`
	wireStamps
}

func AuthorCodec() Codec[entity.Author] {
	return &codec[entity.Author, wireAuthor]{
		kind: entity.KindAuthor,
		schema: &schema{
			element:  "author",
			required: []string{"id", "name"},
			scalars:  scalars("id", "name", "test"),
		},
		toWire: func(a entity.Author) wireAuthor {
			return wireAuthor{
				ID:         formatID(a.ID),
				Name:       a.Name,
				Test:       formatBool(a.Test),
				wireStamps: stampsToWire(a.Stamps),
			}
		},
		fromWire: func(w wireAuthor, p *fieldParser) entity.Author {
			return entity.Author{
				ID:     p.id("id", w.ID),
				Name:   w.Name,
				Test:   p.boolean("test", w.Test),
				Stamps: p.stamps(w.wireStamps),
			}
		},
	}
}

// Binding

type wireBinding struct {
	XMLName xml.Name `xml:"binding"`
	ID      string   `xml:"id,omitempty"`
	Name    string   `xml:"name,omitempty"`
	NameEn  string   `xml:"name_en,omitempty"`
	Test    string   `xml:"test"`
	wireStamps
}

func BindingCodec() Codec[entity.Binding] {
	return &codec[entity.Binding, wireBinding]{
		kind: entity.KindBinding,
		schema: &schema{
			element:  "binding",
			required: []string{"id", "name"},
			scalars:  scalars("id", "name", "name_en", "test"),
		},
		toWire: func(b entity.Binding) wireBinding {
			return wireBinding{
				ID:         formatID(b.ID),
				Name:       b.Name,
				NameEn:     b.NameEn,
				Test:       formatBool(b.Test),
				wireStamps: stampsToWire(b.Stamps),
			}
		},
		fromWire: func(w wireBinding, p *fieldParser) entity.Binding {
			return entity.Binding{
				ID:     p.id("id", w.ID),
				Name:   w.Name,
				NameEn: w.NameEn,
				Test:   p.boolean("test", w.Test),
				Stamps: p.stamps(w.wireStamps),
			}
		},
	}
}

// Country

type wireCountry struct {
	XMLName  xml.Name `xml:"country"`
	ID       string   `xml:"id,omitempty"`
	Code     string   `xml:"code,omitempty"`
	Name     string   `xml:"name,omitempty"`
	NameEn   string   `xml:"name_en,omitempty"`
	EUMember string   `xml:"eu_member"`
	Test     string   `xml:"test"`
	wireStamps
}

func CountryCodec() Codec[entity.Country] {
	return &codec[entity.Country, wireCountry]{
		kind: entity.KindCountry,
		schema: &schema{
			element:  "country",
			required: []string{"id", "code", "name"},
			scalars:  scalars("id", "code", "name", "name_en", "eu_member", "test"),
		},
		toWire: func(c entity.Country) wireCountry {
			return wireCountry{
				ID:         formatID(c.ID),
				Code:       c.Code,
				Name:       c.Name,
				NameEn:     c.NameEn,
				EUMember:   formatBool(c.EUMember),
				Test:       formatBool(c.Test),
				wireStamps: stampsToWire(c.Stamps),
			}
		},
		fromWire: func(w wireCountry, p *fieldParser) entity.Country {
			return entity.Country{
				ID:       p.id("id", w.ID),
				Code:     w.Code,
				Name:     w.Name,
				NameEn:   w.NameEn,
				EUMember: p.boolean("eu_member", w.EUMember),
				Test:     p.boolean("test", w.Test),
				Stamps:   p.stamps(w.wireStamps),
			}
		},
	}
}

// Customer

type wireCustomer struct {
	XMLName          xml.Name `xml:"customer"`
	WebshopID        string   `xml:"webshop_id,omitempty"`
	StoreID          string   `xml:"store_id,omitempty"`
	Email            string   `xml:"email,omitempty"`
	FirstName        string   `xml:"first_name,omitempty"`
	LastName         string   `xml:"last_name,omitempty"`
	Company          string   `xml:"company,omitempty"`
	Street           string   `xml:"street,omitempty"`
	HouseNumber      string   `xml:"house_number,omitempty"`
	PostalCode       string   `xml:"postal_code,omitempty"`
	City             string   `xml:"city,omitempty"`
	CountryID        string   `xml:"country_id,omitempty"`
	Phone            string   `xml:"phone,omitempty"`
	Newsletter       string   `xml:"newsletter"`
	Teacher          string   `xml:"teacher"`
	TeacherConfirmed string   `xml:"teacher_confirmed"`
	DiscountPct      string   `xml:"discount_pct,omitempty"`
	Test             string   `xml:"test"`
	wireStamps
}

// CustomerCodec requires webshop_id on decode: every customer the webshop
// returns has been assigned one.
func CustomerCodec() Codec[entity.Customer] {
	return &codec[entity.Customer, wireCustomer]{
		kind: entity.KindCustomer,
		schema: &schema{
			element:  "customer",
			required: []string{"webshop_id", "store_id", "email"},
			scalars: scalars("webshop_id", "store_id", "email", "first_name", "last_name",
				"company", "street", "house_number", "postal_code", "city", "country_id",
				"phone", "newsletter", "teacher", "teacher_confirmed", "discount_pct", "test"),
		},
		toWire: func(c entity.Customer) wireCustomer {
			return wireCustomer{
				WebshopID:        formatID(c.WebshopID),
				StoreID:          formatID(c.StoreID),
				Email:            c.Email,
				FirstName:        c.FirstName,
				LastName:         c.LastName,
				Company:          c.Company,
				Street:           c.Street,
				HouseNumber:      c.HouseNumber,
				PostalCode:       c.PostalCode,
				City:             c.City,
				CountryID:        formatID(c.CountryID),
				Phone:            c.Phone,
				Newsletter:       formatBool(c.Newsletter),
				Teacher:          formatBool(c.Teacher),
				TeacherConfirmed: formatBool(c.TeacherConfirmed),
				DiscountPct:      formatOptInt(c.DiscountPct),
				Test:             formatBool(c.Test),
				wireStamps:       stampsToWire(c.Stamps),
			}
		},
		fromWire: func(w wireCustomer, p *fieldParser) entity.Customer {
			return entity.Customer{
				WebshopID:        p.id("webshop_id", w.WebshopID),
				StoreID:          p.id("store_id", w.StoreID),
				Email:            w.Email,
				FirstName:        w.FirstName,
				LastName:         w.LastName,
				Company:          w.Company,
				Street:           w.Street,
				HouseNumber:      w.HouseNumber,
				PostalCode:       w.PostalCode,
				City:             w.City,
				CountryID:        p.id("country_id", w.CountryID),
				Phone:            w.Phone,
				Newsletter:       p.boolean("newsletter", w.Newsletter),
				Teacher:          p.boolean("teacher", w.Teacher),
				TeacherConfirmed: p.boolean("teacher_confirmed", w.TeacherConfirmed),
				DiscountPct:      p.integer("discount_pct", w.DiscountPct),
				Test:             p.boolean("test", w.Test),
				Stamps:           p.stamps(w.wireStamps),
			}
		},
	}
}

// Manufacturer

type wireManufacturer struct {
	XMLName xml.Name `xml:"manufacturer"`
	ID      string   `xml:"id,omitempty"`
	Name    string   `xml:"name,omitempty"`
	Website string   `xml:"website,omitempty"`
	Test    string   `xml:"test"`
	wireStamps
}

func ManufacturerCodec() Codec[entity.Manufacturer] {
	return &codec[entity.Manufacturer, wireManufacturer]{
		kind: entity.KindManufacturer,
		schema: &schema{
			element:  "manufacturer",
			required: []string{"id", "name"},
			scalars:  scalars("id", "name", "website", "test"),
		},
		toWire: func(m entity.Manufacturer) wireManufacturer {
			return wireManufacturer{
				ID:         formatID(m.ID),
				Name:       m.Name,
				Website:    m.Website,
				Test:       formatBool(m.Test),
				wireStamps: stampsToWire(m.Stamps),
			}
		},
		fromWire: func(w wireManufacturer, p *fieldParser) entity.Manufacturer {
			return entity.Manufacturer{
				ID:      p.id("id", w.ID),
				Name:    w.Name,
				Website: w.Website,
				Test:    p.boolean("test", w.Test),
				Stamps:  p.stamps(w.wireStamps),
			}
		},
	}
}

// ProductCategory

type wireProductCategory struct {
	XMLName  xml.Name `xml:"product_category"`
	ID       string   `xml:"id,omitempty"`
	ParentID string   `xml:"parent_id,omitempty"`
	Name     string   `xml:"name,omitempty"`
	NameEn   string   `xml:"name_en,omitempty"`
	Sequence string   `xml:"sequence"`
	Test     string   `xml:"test"`
	wireStamps
}

func ProductCategoryCodec() Codec[entity.ProductCategory] {
	return &codec[entity.ProductCategory, wireProductCategory]{
		kind: entity.KindProductCategory,
		schema: &schema{
			element:  "product_category",
			required: []string{"id", "name"},
			scalars:  scalars("id", "parent_id", "name", "name_en", "sequence", "test"),
		},
		toWire: func(c entity.ProductCategory) wireProductCategory {
			return wireProductCategory{
				ID:         formatID(c.ID),
				ParentID:   formatID(c.ParentID),
				Name:       c.Name,
				NameEn:     c.NameEn,
				Sequence:   formatInt(c.Sequence),
				Test:       formatBool(c.Test),
				wireStamps: stampsToWire(c.Stamps),
			}
		},
		fromWire: func(w wireProductCategory, p *fieldParser) entity.ProductCategory {
			return entity.ProductCategory{
				ID:       p.id("id", w.ID),
				ParentID: p.id("parent_id", w.ParentID),
				Name:     w.Name,
				NameEn:   w.NameEn,
				Sequence: p.integer("sequence", w.Sequence),
				Test:     p.boolean("test", w.Test),
				Stamps:   p.stamps(w.wireStamps),
			}
		},
	}
}

// ProductSeries

type wireProductSeries struct {
	XMLName        xml.Name `xml:"product_series"`
	ID             string   `xml:"id,omitempty"`
	ManufacturerID string   `xml:"manufacturer_id,omitempty"`
	Name           string   `xml:"name,omitempty"`
	Test           string   `xml:"test"`
	wireStamps
}

func ProductSeriesCodec() Codec[entity.ProductSeries] {
	return &codec[entity.ProductSeries, wireProductSeries]{
		kind: entity.KindProductSeries,
		schema: &schema{
			element:  "product_series",
			required: []string{"id", "name"},
			scalars:  scalars("id", "manufacturer_id", "name", "test"),
		},
		toWire: func(s entity.ProductSeries) wireProductSeries {
			return wireProductSeries{
				ID:             formatID(s.ID),
				ManufacturerID: formatID(s.ManufacturerID),
				Name:           s.Name,
				Test:           formatBool(s.Test),
				wireStamps:     stampsToWire(s.Stamps),
			}
		},
		fromWire: func(w wireProductSeries, p *fieldParser) entity.ProductSeries {
			return entity.ProductSeries{
				ID:             p.id("id", w.ID),
				ManufacturerID: p.id("manufacturer_id", w.ManufacturerID),
				Name:           w.Name,
				Test:           p.boolean("test", w.Test),
				Stamps:         p.stamps(w.wireStamps),
			}
		},
	}
}

// Supplier

type wireSupplier struct {
	XMLName      xml.Name `xml:"supplier"`
	ID           string   `xml:"id,omitempty"`
	Name         string   `xml:"name,omitempty"`
	Email        string   `xml:"email,omitempty"`
	Phone        string   `xml:"phone,omitempty"`
	DeliveryDays string   `xml:"delivery_days,omitempty"`
	Test         string   `xml:"test"`
	wireStamps
}

func SupplierCodec() Codec[entity.Supplier] {
	return &codec[entity.Supplier, wireSupplier]{
		kind: entity.KindSupplier,
		schema: &schema{
			element:  "supplier",
			required: []string{"id", "name"},
			scalars:  scalars("id", "name", "email", "phone", "delivery_days", "test"),
		},
		toWire: func(s entity.Supplier) wireSupplier {
			return wireSupplier{
				ID:           formatID(s.ID),
				Name:         s.Name,
				Email:        s.Email,
				Phone:        s.Phone,
				DeliveryDays: formatOptInt(s.DeliveryDays),
				Test:         formatBool(s.Test),
				wireStamps:   stampsToWire(s.Stamps),
			}
		},
		fromWire: func(w wireSupplier, p *fieldParser) entity.Supplier {
			return entity.Supplier{
				ID:           p.id("id", w.ID),
				Name:         w.Name,
				Email:        w.Email,
				Phone:        w.Phone,
				DeliveryDays: p.integer("delivery_days", w.DeliveryDays),
				Test:         p.boolean("test", w.Test),
				Stamps:       p.stamps(w.wireStamps),
			}
		},
	}
}
