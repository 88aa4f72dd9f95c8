package xmlcodec

import (
	"encoding/xml"
	"fmt"

	"webshopsync/internal/entity"
)

type wireSong struct {
	ID       string `xml:"id,omitempty"`
	Title    string `xml:"title,omitempty"`
	AuthorID string `xml:"author_id,omitempty"`
	Sequence string `xml:"sequence"`
}

type wirePicture struct {
	FileName string `xml:"file_name"`
}

type wireCategoryRef struct {
	ID string `xml:"id"`
}

type wireProduct struct {
	XMLName        xml.Name `xml:"product"`
	ID             string   `xml:"id,omitempty"`
	EAN            string   `xml:"ean,omitempty"`
	Title          string   `xml:"title,omitempty"`
	Subtitle       string   `xml:"subtitle,omitempty"`
	Description    string   `xml:"description,omitempty"`
	DescriptionEn  string   `xml:"description_en,omitempty"`
	Price          string   `xml:"price"`
	VatRate        string   `xml:"vat_rate"`
	Stock          string   `xml:"stock"`
	WeightGrams    string   `xml:"weight_grams,omitempty"`
	Pages          string   `xml:"pages,omitempty"`
	ReleaseYear    string   `xml:"release_year,omitempty"`
	ManufacturerID string   `xml:"manufacturer_id,omitempty"`
	SupplierID     string   `xml:"supplier_id,omitempty"`
	BindingID      string   `xml:"binding_id,omitempty"`
	SeriesID       string   `xml:"series_id,omitempty"`
	Visible        string   `xml:"visible"`
	Test           string   `xml:"test"`
	wireStamps

	Songs      []wireSong        `xml:"song"`
	Pictures   []wirePicture     `xml:"product_picture"`
	Categories []wireCategoryRef `xml:"product_category"`
}

var productSchema = &schema{
	element:  "product",
	required: []string{"id", "title"},
	scalars: scalars("id", "ean", "title", "subtitle", "description", "description_en",
		"price", "vat_rate", "stock", "weight_grams", "pages", "release_year",
		"manufacturer_id", "supplier_id", "binding_id", "series_id", "visible", "test"),
	repeated: map[string]*schema{
		"song": {
			element:  "song",
			required: []string{"title", "sequence"},
			scalars:  []string{"id", "title", "author_id", "sequence"},
		},
		"product_picture": {
			element:  "product_picture",
			required: []string{"file_name"},
			scalars:  []string{"file_name"},
		},
		"product_category": {
			element:  "product_category",
			required: []string{"id"},
			scalars:  []string{"id"},
		},
	},
}

// ProductCodec writes the full child collections on every product: the
// webshop replaces songs, pictures and category links with what it receives.
// Picture FilePath and ToBeUploaded stay local.
func ProductCodec() Codec[entity.Product] {
	return &codec[entity.Product, wireProduct]{
		kind:     entity.KindProduct,
		schema:   productSchema,
		toWire:   productToWire,
		fromWire: productFromWire,
	}
}

func productToWire(p entity.Product) wireProduct {
	w := wireProduct{
		ID:             formatID(p.ID),
		EAN:            p.EAN,
		Title:          p.Title,
		Subtitle:       p.Subtitle,
		Description:    p.Description,
		DescriptionEn:  p.DescriptionEn,
		Price:          p.Price.String(),
		VatRate:        formatInt(p.VatRate),
		Stock:          formatInt(p.Stock),
		WeightGrams:    formatOptInt(p.WeightGrams),
		Pages:          formatOptInt(p.Pages),
		ReleaseYear:    formatOptInt(p.ReleaseYear),
		ManufacturerID: formatID(p.ManufacturerID),
		SupplierID:     formatID(p.SupplierID),
		BindingID:      formatID(p.BindingID),
		SeriesID:       formatID(p.SeriesID),
		Visible:        formatBool(p.Visible),
		Test:           formatBool(p.Test),
		wireStamps:     stampsToWire(p.Stamps),
	}
	for _, s := range p.Songs {
		w.Songs = append(w.Songs, wireSong{
			ID:       formatID(s.ID),
			Title:    s.Title,
			AuthorID: formatID(s.AuthorID),
			Sequence: formatInt(s.Sequence),
		})
	}
	for _, pic := range p.ProductPictures {
		w.Pictures = append(w.Pictures, wirePicture{FileName: pic.FileName})
	}
	for _, c := range p.ProductCategories {
		w.Categories = append(w.Categories, wireCategoryRef{ID: formatID(c.ID)})
	}
	return w
}

func productFromWire(w wireProduct, p *fieldParser) entity.Product {
	out := entity.Product{
		ID:             p.id("id", w.ID),
		EAN:            w.EAN,
		Title:          w.Title,
		Subtitle:       w.Subtitle,
		Description:    w.Description,
		DescriptionEn:  w.DescriptionEn,
		Price:          p.money("price", w.Price),
		VatRate:        p.integer("vat_rate", w.VatRate),
		Stock:          p.integer("stock", w.Stock),
		WeightGrams:    p.integer("weight_grams", w.WeightGrams),
		Pages:          p.integer("pages", w.Pages),
		ReleaseYear:    p.integer("release_year", w.ReleaseYear),
		ManufacturerID: p.id("manufacturer_id", w.ManufacturerID),
		SupplierID:     p.id("supplier_id", w.SupplierID),
		BindingID:      p.id("binding_id", w.BindingID),
		SeriesID:       p.id("series_id", w.SeriesID),
		Visible:        p.boolean("visible", w.Visible),
		Test:           p.boolean("test", w.Test),
		Stamps:         p.stamps(w.wireStamps),
	}

	for i, s := range w.Songs {
		sp := p.at(fmt.Sprintf("%s/song[%d]", p.path, i+1))
		out.Songs = append(out.Songs, entity.Song{
			ID:       sp.id("id", s.ID),
			Title:    s.Title,
			AuthorID: sp.id("author_id", s.AuthorID),
			Sequence: sp.integer("sequence", s.Sequence),
		})
		p.merge(sp)
	}
	for _, pic := range w.Pictures {
		out.ProductPictures = append(out.ProductPictures, entity.ProductPicture{FileName: pic.FileName})
	}
	for i, c := range w.Categories {
		cp := p.at(fmt.Sprintf("%s/product_category[%d]", p.path, i+1))
		out.ProductCategories = append(out.ProductCategories, entity.ProductCategoryRef{ID: cp.id("id", c.ID)})
		p.merge(cp)
	}
	return out
}
