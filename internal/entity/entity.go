package entity

import "time"

// Stamps is the timestamp triad every record carries. Nil means "not set";
// the webshop fills Created/Updated itself when they are absent.
type Stamps struct {
	CreatedDttm *time.Time `db:"created_dttm"`
	UpdatedDttm *time.Time `db:"updated_dttm"`
	DeletedDttm *time.Time `db:"deleted_dttm"`
}

// Deleted reports whether the record is logically deleted.
func (s Stamps) Deleted() bool {
	return s.DeletedDttm != nil
}

type Author struct {
	ID   int64  `db:"id"`
	Name string `db:"name" validate:"required,max=255"`
	Test bool   `db:"test"`
	Stamps
}

type Binding struct {
	ID     int64  `db:"id"`
	Name   string `db:"name" validate:"required,max=100"`
	NameEn string `db:"name_en" validate:"max=100"`
	Test   bool   `db:"test"`
	Stamps
}

type Country struct {
	ID       int64  `db:"id"`
	Code     string `db:"code" validate:"required,len=2"`
	Name     string `db:"name" validate:"required"`
	NameEn   string `db:"name_en"`
	EUMember bool   `db:"eu_member"`
	Test     bool   `db:"test"`
	Stamps
}

// Customer is keyed by StoreID locally. WebshopID is assigned by the webshop
// on first creation and is never chosen by the client.
type Customer struct {
	StoreID          int64  `db:"store_id" validate:"required,gt=0"`
	WebshopID        int64  `db:"webshop_id"`
	Email            string `db:"email" validate:"required,email"`
	FirstName        string `db:"first_name"`
	LastName         string `db:"last_name" validate:"required"`
	Company          string `db:"company"`
	Street           string `db:"street"`
	HouseNumber      string `db:"house_number"`
	PostalCode       string `db:"postal_code"`
	City             string `db:"city"`
	CountryID        int64  `db:"country_id"`
	Phone            string `db:"phone"`
	Newsletter       bool   `db:"newsletter"`
	Teacher          bool   `db:"teacher"`
	TeacherConfirmed bool   `db:"teacher_confirmed"`
	DiscountPct      int    `db:"discount_pct" validate:"gte=0,lte=100"`
	Test             bool   `db:"test"`
	Stamps
}

type Manufacturer struct {
	ID      int64  `db:"id"`
	Name    string `db:"name" validate:"required,max=255"`
	Website string `db:"website" validate:"omitempty,url"`
	Test    bool   `db:"test"`
	Stamps
}

type ProductCategory struct {
	ID       int64  `db:"id"`
	ParentID int64  `db:"parent_id"`
	Name     string `db:"name" validate:"required"`
	NameEn   string `db:"name_en"`
	Sequence int    `db:"sequence" validate:"gte=0"`
	Test     bool   `db:"test"`
	Stamps
}

type ProductSeries struct {
	ID             int64  `db:"id"`
	ManufacturerID int64  `db:"manufacturer_id"`
	Name           string `db:"name" validate:"required"`
	Test           bool   `db:"test"`
	Stamps
}

type Supplier struct {
	ID           int64  `db:"id"`
	Name         string `db:"name" validate:"required"`
	Email        string `db:"email" validate:"omitempty,email"`
	Phone        string `db:"phone"`
	DeliveryDays int    `db:"delivery_days" validate:"gte=0"`
	Test         bool   `db:"test"`
	Stamps
}

// Product owns its songs, pictures and category links. All three are sent
// in full on every update and replace whatever the webshop had.
type Product struct {
	ID             int64  `db:"id"`
	EAN            string `db:"ean" validate:"omitempty,numeric,max=14"`
	Title          string `db:"title" validate:"required"`
	Subtitle       string `db:"subtitle"`
	Description    string `db:"description"`
	DescriptionEn  string `db:"description_en"`
	Price          Money  `db:"price" validate:"gte=0"`
	VatRate        int    `db:"vat_rate" validate:"gte=0,lte=100"`
	Stock          int    `db:"stock"`
	WeightGrams    int    `db:"weight_grams" validate:"gte=0"`
	Pages          int    `db:"pages" validate:"gte=0"`
	ReleaseYear    int    `db:"release_year"`
	ManufacturerID int64  `db:"manufacturer_id"`
	SupplierID     int64  `db:"supplier_id"`
	BindingID      int64  `db:"binding_id"`
	SeriesID       int64  `db:"series_id"`
	Visible        bool   `db:"visible"`
	Test           bool   `db:"test"`
	Stamps

	Songs             []Song               `db:"-" validate:"dive"`
	ProductPictures   []ProductPicture     `db:"-" validate:"dive"`
	ProductCategories []ProductCategoryRef `db:"-" validate:"dive"`
}

// Song is one entry of a product's ordered track list.
type Song struct {
	ID       int64  `db:"id"`
	Title    string `db:"title" validate:"required"`
	AuthorID int64  `db:"author_id"`
	Sequence int    `db:"sequence" validate:"gte=0"`
}

// ProductPicture references a binary in the asset store by FileName.
// FilePath and ToBeUploaded only matter locally and never go over the wire.
type ProductPicture struct {
	FileName     string `db:"file_name" validate:"required,asset_name"`
	FilePath     string `db:"file_path"`
	ToBeUploaded bool   `db:"to_be_uploaded"`
}

// ProductCategoryRef links a product to a category by id.
type ProductCategoryRef struct {
	ID int64 `db:"category_id" validate:"required"`
}

// PictureNames returns the file names of the product's pictures.
func (p Product) PictureNames() []string {
	names := make([]string, 0, len(p.ProductPictures))
	for _, pic := range p.ProductPictures {
		names = append(names, pic.FileName)
	}
	return names
}
