package localstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"webshopsync/internal/entity"
	"webshopsync/internal/syncrun"
)

type songRow struct {
	ProductID int64 `db:"product_id"`
	entity.Song
}

type pictureRow struct {
	ProductID int64 `db:"product_id"`
	entity.ProductPicture
}

type categoryRefRow struct {
	ProductID int64 `db:"product_id"`
	entity.ProductCategoryRef
}

// Products returns the changed products with their songs, pictures and
// category links.
func (s *Store) Products(ctx context.Context, c syncrun.Changes) ([]entity.Product, error) {
	products, err := selectAll[entity.Product](ctx, s.db, s.changed(productTable, c))
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) Product(ctx context.Context, id int64) (entity.Product, error) {
	p, err := selectOne[entity.Product](ctx, s.db, s.sb.
		Select(productTable.all()...).
		From(productTable.name).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return entity.Product{}, fmt.Errorf("product %d: %w", id, err)
	}

	products := []entity.Product{p}
	if err := s.loadChildren(ctx, products); err != nil {
		return entity.Product{}, err
	}
	return products[0], nil
}

func (s *Store) loadChildren(ctx context.Context, products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]*entity.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = &products[i]
	}

	songs, err := selectAll[songRow](ctx, s.db, s.sb.
		Select("product_id", "id", "title", "author_id", "sequence").
		From("store_song").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("product_id", "sequence"))
	if err != nil {
		return fmt.Errorf("load songs: %w", err)
	}
	for _, r := range songs {
		p := index[r.ProductID]
		p.Songs = append(p.Songs, r.Song)
	}

	pictures, err := selectAll[pictureRow](ctx, s.db, s.sb.
		Select("product_id", "file_name", "file_path", "to_be_uploaded").
		From("store_product_picture").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("product_id", "file_name"))
	if err != nil {
		return fmt.Errorf("load pictures: %w", err)
	}
	for _, r := range pictures {
		p := index[r.ProductID]
		p.ProductPictures = append(p.ProductPictures, r.ProductPicture)
	}

	refs, err := selectAll[categoryRefRow](ctx, s.db, s.sb.
		Select("product_id", "category_id").
		From("store_product_category_ref").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("product_id", "category_id"))
	if err != nil {
		return fmt.Errorf("load category links: %w", err)
	}
	for _, r := range refs {
		p := index[r.ProductID]
		p.ProductCategories = append(p.ProductCategories, r.ProductCategoryRef)
	}

	return nil
}

// MarkPicturesUploaded clears the upload flag of the named pictures.
func (s *Store) MarkPicturesUploaded(ctx context.Context, productID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := s.exec(ctx, s.sb.
		Update("store_product_picture").
		Set("to_be_uploaded", false).
		Where(sq.Eq{"product_id": productID, "file_name": names}))
	if err != nil {
		return fmt.Errorf("mark pictures of product %d: %w", productID, err)
	}
	return nil
}
