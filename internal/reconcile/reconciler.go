package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"webshopsync/internal/assets"
	"webshopsync/internal/entity"
	"webshopsync/internal/webshop"
)

// Products is the plain product API: one fetch, one wholesale update.
type Products interface {
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	Update(ctx context.Context, p entity.Product) (*entity.Product, error)
}

// Assets moves picture binaries into the asset store.
type Assets interface {
	Upload(ctx context.Context, filePath, remoteName string) error
}

type Config struct {
	// DiffAgainstRemote fetches the stored product first. Pictures the
	// webshop does not know yet are uploaded even without ToBeUploaded.
	// Pictures the product dropped stay in the asset store: the namespace is
	// flat and another product may still reference the same file.
	DiffAgainstRemote bool
}

// Report is the outcome of one Push.
type Report struct {
	State    State
	Uploaded []string
	// Product is the record the webshop echoed back, if any.
	Product *entity.Product
}

func (r *Report) advance(to State) {
	if !r.State.CanTransition(to) {
		panic(fmt.Sprintf("reconcile: illegal transition %s -> %s", r.State, to))
	}
	r.State = to
}

// Reconciler pushes a product together with its pictures so that the
// webshop never references a file the asset store does not have.
type Reconciler struct {
	products Products
	assets   Assets
	cfg      Config
	log      zerolog.Logger
}

func New(products Products, assets Assets, cfg Config, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		products: products,
		assets:   assets,
		cfg:      cfg,
		log:      log,
	}
}

// Push uploads the pictures that need it and then sends the product with
// all of its children in one update. An upload failure stops the update
// from being sent. On success the uploaded pictures are no longer marked
// ToBeUploaded and a newly assigned ID is copied into p.
func (r *Reconciler) Push(ctx context.Context, p *entity.Product) (Report, error) {
	rep := Report{State: Pending}
	log := r.log.With().Int64("product_id", p.ID).Str("title", p.Title).Logger()

	if err := entity.Validate(entity.KindProduct, *p); err != nil {
		rep.advance(Failed)
		return rep, err
	}

	var remote *entity.Product
	if r.cfg.DiffAgainstRemote && p.ID != 0 {
		got, err := r.products.GetByID(ctx, p.ID)
		var appErr *webshop.ApplicationError
		switch {
		case errors.As(err, &appErr):
			// not stored yet
		case err != nil:
			rep.advance(Failed)
			return rep, fmt.Errorf("fetch product %d: %w", p.ID, err)
		default:
			remote = got
		}
	}

	rep.advance(AssetsUploading)
	work := r.uploads(p, remote)
	for _, i := range work {
		pic := p.ProductPictures[i]
		if pic.FilePath == "" {
			rep.advance(Failed)
			return rep, &assets.TransferError{FileName: pic.FileName, Op: "upload", Err: errors.New("no local file to upload")}
		}
		if err := r.assets.Upload(ctx, pic.FilePath, pic.FileName); err != nil {
			log.Error().Err(err).Str("file", pic.FileName).Msg("picture upload failed, product not sent")
			rep.advance(Failed)
			return rep, err
		}
		rep.Uploaded = append(rep.Uploaded, pic.FileName)
	}
	rep.advance(AssetsReady)

	rep.advance(XMLSubmitting)
	echoed, err := r.products.Update(ctx, *p)
	if err != nil {
		rep.advance(Failed)
		return rep, err
	}
	rep.advance(Committed)
	rep.Product = echoed

	for _, i := range work {
		p.ProductPictures[i].ToBeUploaded = false
	}
	if p.ID == 0 && echoed != nil {
		p.ID = echoed.ID
	}

	log.Info().Int("uploaded", len(rep.Uploaded)).Msg("product committed")
	return rep, nil
}

// uploads returns the indexes of pictures that must reach the asset store
// before the product is sent.
func (r *Reconciler) uploads(p *entity.Product, remote *entity.Product) []int {
	known := make(map[string]bool)
	if remote != nil {
		for _, pic := range remote.ProductPictures {
			known[pic.FileName] = true
		}
	}

	var work []int
	for i, pic := range p.ProductPictures {
		if pic.ToBeUploaded || (remote != nil && !known[pic.FileName]) {
			work = append(work, i)
		}
	}
	return work
}
