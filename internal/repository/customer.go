package repository

import (
	"context"
	"net/url"
	"strconv"

	"webshopsync/internal/entity"
	"webshopsync/internal/xmlcodec"
)

const (
	ActionGetByStoreID               = "getByStoreId"
	ActionGetByEmail                 = "getByEmail"
	ActionGetAllByEmail              = "getAllByEmail"
	ActionSendPasswordResetEmail     = "sendPasswordResetEmail"
	ActionConfirmTeacherRegistration = "confirmTeacherRegistration"
)

// CustomerRepository addresses customers by either identifier space.
// GetByID and DeleteByID take the WebshopID; Update upserts by StoreID and
// never sets a WebshopID itself.
type CustomerRepository struct {
	*Repository[entity.Customer]
}

func NewCustomerRepository(caller Caller) *CustomerRepository {
	return &CustomerRepository{Repository: New(caller, xmlcodec.CustomerCodec())}
}

func (r *CustomerRepository) GetByWebshopID(ctx context.Context, webshopID int64) (*entity.Customer, error) {
	return r.GetByID(ctx, webshopID)
}

func (r *CustomerRepository) GetByStoreID(ctx context.Context, storeID int64) (*entity.Customer, error) {
	return r.fetch(ctx, ActionGetByStoreID, url.Values{"store_id": {strconv.FormatInt(storeID, 10)}})
}

// GetByEmail expects the address to be unique.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	return r.fetch(ctx, ActionGetByEmail, url.Values{"email": {email}})
}

// ListByEmail returns every customer registered with the address.
func (r *CustomerRepository) ListByEmail(ctx context.Context, email string) ([]entity.Customer, error) {
	return r.fetchList(ctx, ActionGetAllByEmail, url.Values{"email": {email}})
}

func (r *CustomerRepository) SendPasswordResetEmail(ctx context.Context, webshopID int64) error {
	return r.perform(ctx, ActionSendPasswordResetEmail, url.Values{"id": {strconv.FormatInt(webshopID, 10)}})
}

func (r *CustomerRepository) ConfirmTeacherRegistration(ctx context.Context, webshopID int64) error {
	return r.perform(ctx, ActionConfirmTeacherRegistration, url.Values{"id": {strconv.FormatInt(webshopID, 10)}})
}
