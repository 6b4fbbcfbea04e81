package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/receipt"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
	"github.com/wichananm65/storefront-backend/internal/user"
)

var testOptions = Options{PageSize: 50, Retries: 2, Backoff: time.Millisecond, Workers: 4}

type fixture struct {
	store    *recordstore.InMemoryStore
	receipts *receipt.RecordRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := recordstore.NewInMemoryStore(collections.Schema())
	return &fixture{
		store:    store,
		receipts: receipt.NewRecordRepository(store, recordstore.Files{BaseURL: "http://files.test"}),
	}
}

func (f *fixture) create(t *testing.T, collection string, fields map[string]any) string {
	t.Helper()
	rec, err := f.store.Create(context.Background(), collection, fields)
	require.NoError(t, err)
	return rec.ID
}

func (f *fixture) product(t *testing.T, id, name, price string) {
	f.create(t, collections.Products, map[string]any{"id": id, "name": name, "price": decimal.RequireFromString(price), "quantity": 10, "image": id + ".png"})
}

func (f *fixture) receipt(t *testing.T, userID, total string) string {
	return f.create(t, collections.Receipts, map[string]any{"userID": userID, "totalAmount": decimal.RequireFromString(total), "courier": "ninjavan", "paymentOption": "Debit Card"})
}

// purchase adds a paid cart line for productID and links it to receiptID.
func (f *fixture) purchase(t *testing.T, userID, receiptID, productID string, qty int) {
	cartID := f.create(t, collections.Cart, map[string]any{"userID": userID, "productID": productID, "quantity": qty, "statusPayment": true})
	f.create(t, collections.ReceiptCart, map[string]any{"cartID": cartID, "receiptID": receiptID})
}

func TestFetchPurchaseHistory(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "Cat Tree", "100")
	f.product(t, "p2", "Cat Sweater", "260")

	older := f.receipt(t, "u1", "100")
	f.purchase(t, "u1", older, "p1", 1)
	newer := f.receipt(t, "u1", "620")
	f.purchase(t, "u1", newer, "p1", 1)
	f.purchase(t, "u1", newer, "p2", 2)
	f.receipt(t, "u2", "1")

	svc := NewService(f.receipts, testOptions, logging.Discard())
	entries, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, newer, entries[0].ID)
	assert.Equal(t, older, entries[1].ID)

	first := entries[0]
	assert.Equal(t, "u1", first.UserID)
	assert.True(t, decimal.NewFromInt(620).Equal(first.TotalAmount))
	assert.Equal(t, "ninjavan", first.Courier)
	assert.Equal(t, "Debit Card", first.PaymentOption)
	require.Len(t, first.Products, 2)
	image := "http://files.test/api/files/products/p1/p1.png"
	assert.Equal(t, ProductLine{
		ID:       "p1",
		Name:     "Cat Tree",
		Price:    decimal.RequireFromString("100"),
		ImageURL: &image,
		Quantity: 1,
	}, first.Products[0])
	assert.Equal(t, "Cat Sweater", first.Products[1].Name)
	assert.Equal(t, 2, first.Products[1].Quantity)

	require.Len(t, entries[1].Products, 1)
}

func TestFetchPurchaseHistory_ReceiptWithLinks(t *testing.T) {
	f := newFixture(t)
	const n = 7
	rc := f.receipt(t, "u1", "70")
	for i := 0; i < n; i++ {
		pid := fmt.Sprintf("p%d", i)
		f.product(t, pid, "Item "+pid, "10")
		f.purchase(t, "u1", rc, pid, 1)
	}

	// links span several pages
	opts := testOptions
	opts.PageSize = 3
	svc := NewService(f.receipts, opts, logging.Discard())
	entries, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Products, n)
}

func TestFetchPurchaseHistory_DropsUnresolvableLinks(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "Bowl", "30")

	good := f.receipt(t, "u1", "30")
	f.purchase(t, "u1", good, "p1", 1)

	broken := f.receipt(t, "u1", "60")
	f.purchase(t, "u1", broken, "p1", 1)
	f.purchase(t, "u1", broken, "deleted-product", 1)
	f.create(t, collections.ReceiptCart, map[string]any{"cartID": "deleted-cart", "receiptID": broken})

	svc := NewService(f.receipts, testOptions, logging.Discard())
	entries, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]Entry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	assert.Len(t, byID[good].Products, 1)
	require.Len(t, byID[broken].Products, 1)
	assert.Equal(t, "Bowl", byID[broken].Products[0].Name)
}

func TestFetchPurchaseHistory_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "Bowl", "30")
	rc := f.receipt(t, "u1", "30")
	f.purchase(t, "u1", rc, "p1", 1)

	svc := NewService(f.receipts, testOptions, logging.Discard())
	first, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 1)
	require.NoError(t, err)
	second, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFetchPurchaseHistory_Paging(t *testing.T) {
	f := newFixture(t)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		ids = append(ids, f.receipt(t, "u1", "1"))
	}

	opts := testOptions
	opts.PageSize = 2
	svc := NewService(f.receipts, opts, logging.Discard())

	entries, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ids[0], entries[0].ID)
	assert.Empty(t, entries[0].Products)

	entries, err = svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 3)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchPurchaseHistory_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.receipts, testOptions, logging.Discard())

	entries, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{}, 1)
	assert.ErrorIs(t, err, user.ErrUnauthenticated)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

// flakyLinks fails the first failures ListLinks calls.
type flakyLinks struct {
	receipt.Repository
	mu       sync.Mutex
	failures int
	calls    int
}

func (r *flakyLinks) ListLinks(ctx context.Context, receiptID string, page, perPage int) (receipt.LinkPage, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return receipt.LinkPage{}, errors.New("connection reset")
	}
	return r.Repository.ListLinks(ctx, receiptID, page, perPage)
}

func TestFetchReceiptCart_Retries(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "Bowl", "30")
	rc := f.receipt(t, "u1", "30")
	f.purchase(t, "u1", rc, "p1", 1)

	cases := []struct {
		name      string
		failures  int
		wantCalls int
		wantLinks int
	}{
		{"first try", 0, 1, 1},
		{"recovers on last retry", 2, 3, 1},
		{"gives up", 5, 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &flakyLinks{Repository: f.receipts, failures: tc.failures}
			log, hook := logtest.NewNullLogger()
			svc := NewService(repo, testOptions, log)

			links := svc.fetchReceiptCart(context.Background(), rc)
			assert.NotNil(t, links)
			assert.Len(t, links, tc.wantLinks)
			assert.Equal(t, tc.wantCalls, repo.calls)

			if tc.wantLinks == 0 {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
			}
		})
	}
}

func TestFetchPurchaseHistory_ExhaustedRetriesKeepReceipt(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "Bowl", "30")
	rc := f.receipt(t, "u1", "30")
	f.purchase(t, "u1", rc, "p1", 1)

	repo := &flakyLinks{Repository: f.receipts, failures: 100}
	svc := NewService(repo, testOptions, logging.Discard())

	entries, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, rc, entries[0].ID)
	assert.Empty(t, entries[0].Products)
}

func TestFetchReceiptCart_BackoffHonoursContext(t *testing.T) {
	f := newFixture(t)
	rc := f.receipt(t, "u1", "30")

	repo := &flakyLinks{Repository: f.receipts, failures: 100}
	opts := testOptions
	opts.Backoff = time.Hour
	svc := NewService(repo, opts, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	links := svc.fetchReceiptCart(ctx, rc)
	assert.Empty(t, links)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, 1, repo.calls)
}

type brokenReceipts struct {
	receipt.Repository
}

func (brokenReceipts) ListByUser(context.Context, string, int, int) (receipt.Page, error) {
	return receipt.Page{}, errors.New("database is down")
}

func TestFetchPurchaseHistory_ReceiptListFailure(t *testing.T) {
	svc := NewService(brokenReceipts{}, testOptions, logging.Discard())
	entries, err := svc.FetchPurchaseHistory(context.Background(), user.Identity{UserID: "u1"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is down")
	assert.Empty(t, entries)
}
