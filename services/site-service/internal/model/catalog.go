package model

type Recurring struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
}

type Price struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product"`
	UnitAmount int64      `json:"unit_amount"`
	Currency   string     `json:"currency"`
	Recurring  *Recurring `json:"recurring"`
	Active     bool       `json:"active"`
}

type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Active      bool              `json:"active"`
	Metadata    map[string]string `json:"metadata"`
	Images      []string          `json:"images,omitempty"`
}

// ProductWithPrices groups a product with its active prices, cheapest first.
type ProductWithPrices struct {
	Product
	Prices []Price `json:"prices"`
}
