package syncrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"webshopsync/internal/assets"
	"webshopsync/internal/entity"
	"webshopsync/internal/reconcile"
	"webshopsync/internal/repository"
	"webshopsync/internal/webshop"
	"webshopsync/internal/webshoptest"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Countries(ctx context.Context, c Changes) ([]entity.Country, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.Country), args.Error(1)
}

func (m *mockSource) Authors(ctx context.Context, c Changes) ([]entity.Author, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.Author), args.Error(1)
}

func (m *mockSource) Bindings(ctx context.Context, c Changes) ([]entity.Binding, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.Binding), args.Error(1)
}

func (m *mockSource) Manufacturers(ctx context.Context, c Changes) ([]entity.Manufacturer, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.Manufacturer), args.Error(1)
}

func (m *mockSource) Suppliers(ctx context.Context, c Changes) ([]entity.Supplier, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.Supplier), args.Error(1)
}

func (m *mockSource) ProductSeries(ctx context.Context, c Changes) ([]entity.ProductSeries, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.ProductSeries), args.Error(1)
}

func (m *mockSource) ProductCategories(ctx context.Context, c Changes) ([]entity.ProductCategory, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.ProductCategory), args.Error(1)
}

func (m *mockSource) Customers(ctx context.Context, c Changes) ([]entity.Customer, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.Customer), args.Error(1)
}

func (m *mockSource) Products(ctx context.Context, c Changes) ([]entity.Product, error) {
	args := m.Called(ctx, c)
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *mockSource) SaveCustomerWebshopID(ctx context.Context, storeID, webshopID int64) error {
	args := m.Called(ctx, storeID, webshopID)
	return args.Error(0)
}

func (m *mockSource) MarkPicturesUploaded(ctx context.Context, productID int64, names []string) error {
	args := m.Called(ctx, productID, names)
	return args.Error(0)
}

// withDefaults answers every kind not set up before with no changes.
func (m *mockSource) withDefaults() *mockSource {
	m.On("Countries", mock.Anything, mock.Anything).Return([]entity.Country{}, nil).Maybe()
	m.On("Authors", mock.Anything, mock.Anything).Return([]entity.Author{}, nil).Maybe()
	m.On("Bindings", mock.Anything, mock.Anything).Return([]entity.Binding{}, nil).Maybe()
	m.On("Manufacturers", mock.Anything, mock.Anything).Return([]entity.Manufacturer{}, nil).Maybe()
	m.On("Suppliers", mock.Anything, mock.Anything).Return([]entity.Supplier{}, nil).Maybe()
	m.On("ProductSeries", mock.Anything, mock.Anything).Return([]entity.ProductSeries{}, nil).Maybe()
	m.On("ProductCategories", mock.Anything, mock.Anything).Return([]entity.ProductCategory{}, nil).Maybe()
	m.On("Customers", mock.Anything, mock.Anything).Return([]entity.Customer{}, nil).Maybe()
	m.On("Products", mock.Anything, mock.Anything).Return([]entity.Product{}, nil).Maybe()
	return m
}

type mockRunStore struct {
	mock.Mock
}

func (m *mockRunStore) CreateRun(ctx context.Context, run *Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockRunStore) UpdateRun(ctx context.Context, run *Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockRunStore) RecordFailure(ctx context.Context, f Failure) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockRunStore) LastCompletedRun(ctx context.Context) (*Run, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Run), args.Error(1)
}

func (m *mockRunStore) Failures(ctx context.Context, runID string) ([]Failure, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).([]Failure), args.Error(1)
}

// gatedShop holds every author update until release is closed, after
// reporting it on entered.
type gatedShop struct {
	*webshoptest.Webshop
	entered chan struct{}
	release chan struct{}
}

func (g *gatedShop) Do(ctx context.Context, req webshop.Request) (string, error) {
	if req.Kind == entity.KindAuthor && req.Action == entity.KindAuthor.UpdateAction() {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Webshop.Do(ctx, req)
}

// countingShop records how many author updates are in flight at once.
type countingShop struct {
	*webshoptest.Webshop
	mu       sync.Mutex
	inFlight   int
	peak       int
	overlapped bool
	second     chan struct{}
}

func (c *countingShop) Do(ctx context.Context, req webshop.Request) (string, error) {
	if req.Kind != entity.KindAuthor || req.Action != entity.KindAuthor.UpdateAction() {
		return c.Webshop.Do(ctx, req)
	}

	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	if c.inFlight == 2 && !c.overlapped {
		c.overlapped = true
		close(c.second)
	}
	c.mu.Unlock()

	// the first update waits for a second one to overlap it
	select {
	case <-c.second:
	case <-time.After(time.Second):
	}
	out, err := c.Webshop.Do(ctx, req)

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	return out, err
}

func newRemote(t *testing.T) (*repository.Set, *webshoptest.Webshop, *webshoptest.MemoryStore) {
	t.Helper()
	shop := webshoptest.New(webshoptest.Options{})
	set, store := newRemoteOver(t, shop)
	return set, shop, store
}

func newRemoteOver(t *testing.T, transport webshop.Transport) (*repository.Set, *webshoptest.MemoryStore) {
	t.Helper()
	store := webshoptest.NewMemoryStore()
	client := webshop.NewClient(transport, webshop.Options{
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
		BackoffMax:  time.Millisecond,
		Logger:      zerolog.Nop(),
	})
	set := repository.NewSet(client, assets.NewSynchronizer(store, zerolog.Nop()), reconcile.Config{}, zerolog.Nop())
	return set, store
}

func TestService_Run(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("pushes changes in dependency order", func(t *testing.T) {
		remote, shop, store := newRemote(t)
		ctx := context.Background()

		cover := filepath.Join(t.TempDir(), "cover.jpg")
		require.NoError(t, os.WriteFile(cover, []byte("jpeg"), 0o600))

		src := new(mockSource)
		src.On("Countries", ctx, Changes{Since: since}).Return([]entity.Country{{ID: 1, Code: "CZ", Name: "Česko"}}, nil)
		src.On("Authors", ctx, Changes{Since: since}).Return([]entity.Author{{ID: 7, Name: "Mozart W.A."}}, nil)
		src.On("Customers", ctx, Changes{Since: since}).Return([]entity.Customer{{StoreID: 17, Email: "anna@example.com", LastName: "Novak"}}, nil)
		src.On("Products", ctx, Changes{Since: since}).Return([]entity.Product{{
			ID:              501,
			Title:           "Requiem",
			ProductPictures: []entity.ProductPicture{{FileName: "cover.jpg", FilePath: cover, ToBeUploaded: true}},
		}}, nil)
		src.On("SaveCustomerWebshopID", mock.Anything, int64(17), int64(1001)).Return(nil)
		src.On("MarkPicturesUploaded", mock.Anything, int64(501), []string{"cover.jpg"}).Return(nil)
		src.withDefaults()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(nil, nil)
		runs.On("CreateRun", ctx, mock.MatchedBy(func(r *Run) bool {
			return r.Status == StatusRunning && r.Since.Equal(since) && r.ID != ""
		})).Return(nil)
		runs.On("UpdateRun", mock.Anything, mock.MatchedBy(func(r *Run) bool {
			return r.Status == StatusCompleted && r.Pushed == 4 && r.Failed == 0 && r.FinishedAt != nil
		})).Return(nil)

		svc := NewService(src, runs, remote, Config{}, zerolog.Nop())
		run, err := svc.Run(ctx, since)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, run.Status)

		var updates []entity.Kind
		for _, c := range shop.Calls() {
			if c.Action == c.Kind.UpdateAction() {
				updates = append(updates, c.Kind)
			}
		}
		assert.Equal(t, []entity.Kind{entity.KindCountry, entity.KindAuthor, entity.KindCustomer, entity.KindProduct}, updates)
		assert.True(t, store.Has("cover.jpg"))

		src.AssertExpectations(t)
		runs.AssertExpectations(t)
	})

	t.Run("records failures and keeps going", func(t *testing.T) {
		remote, _, _ := newRemote(t)
		ctx := context.Background()

		src := new(mockSource)
		src.On("Authors", ctx, Changes{Since: since}).Return([]entity.Author{{ID: 1}, {ID: 2, Name: "Händel G.F."}}, nil)
		src.withDefaults()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(nil, nil)
		runs.On("CreateRun", ctx, mock.Anything).Return(nil)
		runs.On("RecordFailure", mock.Anything, mock.MatchedBy(func(f Failure) bool {
			return f.Kind == entity.KindAuthor && f.Key == "1" && f.Reason != ""
		})).Return(nil).Once()
		runs.On("UpdateRun", mock.Anything, mock.MatchedBy(func(r *Run) bool {
			return r.Status == StatusCompleted && r.Pushed == 1 && r.Failed == 1
		})).Return(nil)

		svc := NewService(src, runs, remote, Config{Concurrency: 4}, zerolog.Nop())
		run, err := svc.Run(ctx, since)
		require.NoError(t, err)
		assert.Equal(t, 1, run.Failed)

		runs.AssertExpectations(t)
	})

	t.Run("source error fails the run", func(t *testing.T) {
		remote, _, _ := newRemote(t)
		ctx := context.Background()

		src := new(mockSource)
		src.On("Countries", ctx, Changes{Since: since}).Return([]entity.Country(nil), errors.New("connection reset"))

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(nil, nil)
		runs.On("CreateRun", ctx, mock.Anything).Return(nil)
		runs.On("UpdateRun", mock.Anything, mock.MatchedBy(func(r *Run) bool {
			return r.Status == StatusFailed && r.Error == "sync country: load changes: connection reset"
		})).Return(nil)

		svc := NewService(src, runs, remote, Config{}, zerolog.Nop())
		_, err := svc.Run(ctx, since)
		assert.EqualError(t, err, "sync country: load changes: connection reset")

		src.AssertNotCalled(t, "Authors", mock.Anything, mock.Anything)
		runs.AssertExpectations(t)
	})

	t.Run("resumes from last completed run", func(t *testing.T) {
		remote, _, _ := newRemote(t)
		ctx := context.Background()
		watermark := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

		src := new(mockSource).withDefaults()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(&Run{ID: "prev", StartedAt: watermark, Status: StatusCompleted}, nil)
		runs.On("CreateRun", ctx, mock.Anything).Return(nil)
		runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)

		svc := NewService(src, runs, remote, Config{}, zerolog.Nop())
		run, err := svc.Run(ctx, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, watermark, run.Since)

		src.AssertCalled(t, "Products", ctx, Changes{Since: watermark})
		runs.AssertNotCalled(t, "Failures", mock.Anything, mock.Anything)
	})

	t.Run("retries keys that failed in the last completed run", func(t *testing.T) {
		remote, _, _ := newRemote(t)
		ctx := context.Background()
		watermark := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

		src := new(mockSource)
		src.On("Authors", ctx, Changes{Since: watermark, Retry: []int64{7}}).Return([]entity.Author{{ID: 7, Name: "Mozart W.A."}}, nil)
		src.On("Customers", ctx, Changes{Since: watermark, Retry: []int64{17}}).Return([]entity.Customer{}, nil)
		src.withDefaults()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(&Run{ID: "prev", StartedAt: watermark, Status: StatusCompleted, Failed: 3}, nil)
		runs.On("Failures", ctx, "prev").Return([]Failure{
			{RunID: "prev", Kind: entity.KindAuthor, Key: "7", Reason: "error: name missing"},
			{RunID: "prev", Kind: entity.KindCustomer, Key: "17", Reason: "error: email taken"},
			{RunID: "prev", Kind: entity.KindAuthor, Key: "not-a-number", Reason: "error"},
		}, nil)
		runs.On("CreateRun", ctx, mock.Anything).Return(nil)
		runs.On("UpdateRun", mock.Anything, mock.MatchedBy(func(r *Run) bool {
			return r.Status == StatusCompleted && r.Pushed == 1 && r.Failed == 0
		})).Return(nil)

		svc := NewService(src, runs, remote, Config{}, zerolog.Nop())
		run, err := svc.Run(ctx, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, watermark, run.Since)

		src.AssertCalled(t, "Authors", ctx, Changes{Since: watermark, Retry: []int64{7}})
		src.AssertCalled(t, "Customers", ctx, Changes{Since: watermark, Retry: []int64{17}})
		src.AssertCalled(t, "Products", ctx, Changes{Since: watermark})
		runs.AssertExpectations(t)
	})

	t.Run("failures listing error stops before the run starts", func(t *testing.T) {
		remote, _, _ := newRemote(t)
		ctx := context.Background()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(&Run{ID: "prev", Status: StatusCompleted, Failed: 1}, nil)
		runs.On("Failures", ctx, "prev").Return([]Failure(nil), errors.New("connection reset"))

		svc := NewService(new(mockSource), runs, remote, Config{}, zerolog.Nop())
		run, err := svc.Run(ctx, since)
		assert.EqualError(t, err, "failures of run prev: connection reset")
		assert.Nil(t, run)
		runs.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
	})

	t.Run("bounded concurrency isolates failures", func(t *testing.T) {
		shop := &countingShop{Webshop: webshoptest.New(webshoptest.Options{}), second: make(chan struct{})}
		remote, _ := newRemoteOver(t, shop)
		ctx := context.Background()

		src := new(mockSource)
		src.On("Authors", ctx, Changes{Since: since}).Return([]entity.Author{
			{ID: 1, Name: "Bach J.S."},
			{ID: 2},
			{ID: 3, Name: "Dvořák A."},
			{ID: 4, Name: "Smetana B."},
			{ID: 5, Name: "Janáček L."},
		}, nil)
		src.withDefaults()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(nil, nil)
		runs.On("CreateRun", ctx, mock.Anything).Return(nil)
		runs.On("RecordFailure", mock.Anything, mock.MatchedBy(func(f Failure) bool {
			return f.Kind == entity.KindAuthor && f.Key == "2"
		})).Return(nil).Once()
		runs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)

		svc := NewService(src, runs, remote, Config{Concurrency: 2}, zerolog.Nop())
		run, err := svc.Run(ctx, since)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, run.Status)
		assert.Equal(t, 4, run.Pushed)
		assert.Equal(t, 1, run.Failed)

		assert.Equal(t, 2, shop.peak)
		assert.Equal(t, 4, shop.CallsTo(entity.KindAuthor, entity.KindAuthor.UpdateAction()))
		runs.AssertExpectations(t)
	})

	t.Run("canceled during a batch", func(t *testing.T) {
		shop := &gatedShop{
			Webshop: webshoptest.New(webshoptest.Options{}),
			entered: make(chan struct{}, 3),
			release: make(chan struct{}),
		}
		remote, _ := newRemoteOver(t, shop)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		src := new(mockSource)
		src.On("Authors", mock.Anything, Changes{Since: since}).Return([]entity.Author{
			{ID: 1, Name: "Bach J.S."},
			{ID: 2, Name: "Dvořák A."},
			{ID: 3, Name: "Smetana B."},
		}, nil)
		src.withDefaults()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", mock.Anything).Return(nil, nil)
		runs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
		runs.On("UpdateRun", mock.Anything, mock.MatchedBy(func(r *Run) bool {
			return r.Status == StatusCanceled && r.Pushed == 1 && r.Failed == 0
		})).Return(nil)

		go func() {
			<-shop.entered
			cancel()
			close(shop.release)
		}()

		svc := NewService(src, runs, remote, Config{}, zerolog.Nop())
		run, err := svc.Run(ctx, since)
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, run)
		assert.Equal(t, StatusCanceled, run.Status)

		assert.Equal(t, 1, shop.CallsTo(entity.KindAuthor, entity.KindAuthor.UpdateAction()))
		assert.Len(t, shop.entered, 0)
		src.AssertNotCalled(t, "Bindings", mock.Anything, mock.Anything)
		runs.AssertExpectations(t)
	})

	t.Run("canceled before start", func(t *testing.T) {
		remote, shop, _ := newRemote(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		src := new(mockSource).withDefaults()

		runs := new(mockRunStore)
		runs.On("LastCompletedRun", ctx).Return(nil, nil)
		runs.On("CreateRun", ctx, mock.Anything).Return(nil)
		runs.On("UpdateRun", mock.Anything, mock.MatchedBy(func(r *Run) bool {
			return r.Status == StatusCanceled
		})).Return(nil)

		svc := NewService(src, runs, remote, Config{}, zerolog.Nop())
		_, err := svc.Run(ctx, since)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, shop.Calls())

		runs.AssertExpectations(t)
	})
}
