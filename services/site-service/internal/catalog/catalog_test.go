package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	listCalls  int
	priceCalls int
	products   []model.Product
	prices     map[string][]model.Price
	listErr    error
}

func (f *fakeSource) ListProducts(context.Context) ([]model.Product, error) {
	f.listCalls++
	return f.products, f.listErr
}

func (f *fakeSource) ProductsWithPrices(context.Context) ([]model.ProductWithPrices, error) {
	out := make([]model.ProductWithPrices, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, model.ProductWithPrices{Product: p, Prices: f.prices[p.ID]})
	}
	return out, nil
}

func (f *fakeSource) GetProduct(_ context.Context, id string) (model.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, model.ErrNotFound
}

func (f *fakeSource) ListPrices(_ context.Context, productID string) ([]model.Price, error) {
	f.priceCalls++
	return f.prices[productID], nil
}

func newService(t *testing.T, src Source) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(src, rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func sampleSource() *fakeSource {
	return &fakeSource{
		products: []model.Product{{ID: "prod_n", Name: "Notary Service", Active: true}},
		prices: map[string][]model.Price{
			"prod_n": {{ID: "price_n", ProductID: "prod_n", UnitAmount: 1500, Currency: "usd", Active: true}},
		},
	}
}

func TestProductsAreCached(t *testing.T) {
	src := sampleSource()
	svc, mr := newService(t, src)
	ctx := context.Background()

	first, err := svc.Products(ctx)
	require.NoError(t, err)
	second, err := svc.Products(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.listCalls)
	assert.True(t, mr.Exists("catalog:products"))

	mr.FastForward(2 * time.Minute)
	_, err = svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.listCalls)
}

func TestPricesUnknownProduct(t *testing.T) {
	svc, mr := newService(t, sampleSource())
	_, err := svc.Prices(context.Background(), "prod_missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.False(t, mr.Exists("catalog:prices:prod_missing"))
}

func TestInvalidate(t *testing.T) {
	src := sampleSource()
	svc, mr := newService(t, src)
	ctx := context.Background()

	_, err := svc.Prices(ctx, "prod_n")
	require.NoError(t, err)
	_, err = svc.Products(ctx)
	require.NoError(t, err)
	mr.Set("unrelated", "x")

	require.NoError(t, svc.Invalidate(ctx))
	assert.False(t, mr.Exists("catalog:products"))
	assert.False(t, mr.Exists("catalog:prices:prod_n"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestFallsBackWhenRedisDown(t *testing.T) {
	src := sampleSource()
	svc, mr := newService(t, src)
	mr.Close()

	products, err := svc.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestNoCacheWithoutRedis(t *testing.T) {
	src := sampleSource()
	src.listErr = errors.New("stripe down")
	svc := New(src, nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := svc.Products(context.Background())
	assert.Error(t, err)
	assert.NoError(t, svc.Invalidate(context.Background()))
}
