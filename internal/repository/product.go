package repository

import (
	"context"

	"github.com/rs/zerolog"

	"webshopsync/internal/entity"
	"webshopsync/internal/reconcile"
	"webshopsync/internal/xmlcodec"
)

// ProductRepository sends products through the reconciler so pictures are
// in the asset store before the webshop sees a reference to them.
type ProductRepository struct {
	*Repository[entity.Product]
	reconciler *reconcile.Reconciler
}

func NewProductRepository(caller Caller, assets reconcile.Assets, cfg reconcile.Config, log zerolog.Logger) *ProductRepository {
	plain := New(caller, xmlcodec.ProductCodec())
	return &ProductRepository{
		Repository: plain,
		reconciler: reconcile.New(plain, assets, cfg, log),
	}
}

// Update pushes p with its pictures. See Push for the full report.
func (r *ProductRepository) Update(ctx context.Context, p entity.Product) (*entity.Product, error) {
	rep, err := r.reconciler.Push(ctx, &p)
	if err != nil {
		return nil, err
	}
	return rep.Product, nil
}

// Push is Update with the reconcile report. p is updated in place: uploaded
// pictures lose ToBeUploaded and a new ID is filled in.
func (r *ProductRepository) Push(ctx context.Context, p *entity.Product) (reconcile.Report, error) {
	return r.reconciler.Push(ctx, p)
}
