package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var ErrNotConfigured = errors.New("stripe not configured")

type CheckoutRequest struct {
	PriceID       string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

type Session struct {
	ID  string
	URL string
}

// Stripe adapts the Stripe API to the catalog and checkout needs of the site.
type Stripe struct {
	sc             *client.API
	publishableKey string
}

func NewStripe(secretKey, publishableKey string, backends *stripe.Backends) *Stripe {
	s := &Stripe{publishableKey: strings.TrimSpace(publishableKey)}
	if key := strings.TrimSpace(secretKey); key != "" {
		s.sc = client.New(key, backends)
	}
	return s
}

func (s *Stripe) Configured() bool {
	return s != nil && s.sc != nil
}

func (s *Stripe) PublishableKey() (string, error) {
	if s.publishableKey == "" {
		return "", ErrNotConfigured
	}
	return s.publishableKey, nil
}

// ListProducts returns active products ordered by name.
func (s *Stripe) ListProducts(ctx context.Context) ([]model.Product, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var out []model.Product
	it := s.sc.Products.List(params)
	for it.Next() {
		out = append(out, toProduct(it.Product()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Stripe) GetProduct(ctx context.Context, id string) (model.Product, error) {
	if !s.Configured() {
		return model.Product{}, ErrNotConfigured
	}
	params := &stripe.ProductParams{}
	params.Context = ctx
	p, err := s.sc.Products.Get(id, params)
	if err != nil {
		if isNotFound(err) {
			return model.Product{}, model.ErrNotFound
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}
	return toProduct(p), nil
}

// ListPrices returns the active prices of a product, cheapest first.
func (s *Stripe) ListPrices(ctx context.Context, productID string) ([]model.Price, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	out := []model.Price{}
	it := s.sc.Prices.List(params)
	for it.Next() {
		out = append(out, toPrice(it.Price()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UnitAmount < out[j].UnitAmount })
	return out, nil
}

// ProductsWithPrices groups every active price under its product.
func (s *Stripe) ProductsWithPrices(ctx context.Context) ([]model.ProductWithPrices, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	byProduct := map[string][]model.Price{}
	it := s.sc.Prices.List(params)
	for it.Next() {
		p := toPrice(it.Price())
		byProduct[p.ProductID] = append(byProduct[p.ProductID], p)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return GroupPrices(products, byProduct), nil
}

// GroupPrices attaches prices to products, keeping product order and sorting
// each product's prices by unit amount.
func GroupPrices(products []model.Product, byProduct map[string][]model.Price) []model.ProductWithPrices {
	out := make([]model.ProductWithPrices, 0, len(products))
	for _, p := range products {
		prices := append([]model.Price{}, byProduct[p.ID]...)
		sort.SliceStable(prices, func(i, j int) bool { return prices[i].UnitAmount < prices[j].UnitAmount })
		out = append(out, model.ProductWithPrices{Product: p, Prices: prices})
	}
	return out
}

// CreateCheckoutSession opens a one-off payment session for a single price.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (Session, error) {
	if !s.Configured() {
		return Session{}, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

// FirstLineItemDescription returns the description of the first line item of a session.
func (s *Stripe) FirstLineItemDescription(ctx context.Context, sessionID string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := s.sc.CheckoutSessions.ListLineItems(params)
	if it.Next() {
		return it.LineItem().Description, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("list line items: %w", err)
	}
	return "", nil
}

func isNotFound(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound
}

func toProduct(p *stripe.Product) model.Product {
	meta := p.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return model.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		Metadata:    meta,
		Images:      p.Images,
	}
}

func toPrice(p *stripe.Price) model.Price {
	out := model.Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
		Active:     p.Active,
	}
	if p.Product != nil {
		out.ProductID = p.Product.ID
	}
	if p.Recurring != nil {
		out.Recurring = &model.Recurring{
			Interval:      string(p.Recurring.Interval),
			IntervalCount: p.Recurring.IntervalCount,
		}
	}
	return out
}
