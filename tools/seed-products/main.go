// Command seed-products creates the site's Stripe catalog. Products that
// already exist by name are left alone.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lbsconnect/examcenter/libs/config"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type seedProduct struct {
	Name        string
	Description string
	Category    string
	Slug        string
	Amount      int64
}

var catalog = []seedProduct{
	{
		Name:        "Computer Workstation Rental",
		Description: "Fully equipped computer workstation with high-speed internet access. Per hour rate.",
		Category:    "workstation",
		Slug:        "computer-workstation-rental",
		Amount:      1500,
	},
	{
		Name:        "Notary Service",
		Description: "Certified notary public services for documents, affidavits, and legal papers. Per document rate.",
		Category:    "notary",
		Slug:        "notary-service",
		Amount:      1500,
	},
	{
		Name:        "Passport Photos",
		Description: "Professional passport and visa photos meeting all government standards. Includes 2 printed photos.",
		Category:    "passport",
		Slug:        "passport-photos",
		Amount:      1500,
	},
	{
		Name:        "Remote Proctoring Services",
		Description: "Private proctoring room with camera, headset, and microphone for remote exams. Per hour rate.",
		Category:    "proctoring",
		Slug:        "remote-proctoring",
		Amount:      3500,
	},
	{
		Name:        "Certification Exam Testing",
		Description: "Professional exam testing environment for IT certifications including Pearson VUE, Certiport, and PMI exams.",
		Category:    "certification",
		Slug:        "certification-exam-testing",
		Amount:      5000,
	},
}

func main() {
	_ = config.LoadDotEnv()
	var (
		secret   = flag.String("secret-key", config.String("STRIPE_SECRET_KEY", ""), "stripe secret key (sk_...)")
		currency = flag.String("currency", config.String("SEED_CURRENCY", "usd"), "price currency")
		dryRun   = flag.Bool("dry-run", false, "print what would be created")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" && !*dryRun {
		fatal("STRIPE_SECRET_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var sc *client.API
	if !*dryRun {
		sc = client.New(*secret, nil)
	}
	failed := 0
	for _, p := range catalog {
		if *dryRun {
			fmt.Printf("would create %q (%s)\n", p.Name, formatAmount(p.Amount))
			continue
		}
		created, err := ensureProduct(ctx, sc, p, *currency)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "error creating product %q: %v\n", p.Name, err)
			continue
		}
		if created {
			fmt.Printf("created product: %s (%s)\n", p.Name, formatAmount(p.Amount))
		} else {
			fmt.Printf("product %q already exists, skipping\n", p.Name)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func ensureProduct(ctx context.Context, sc *client.API, p seedProduct, currency string) (bool, error) {
	search := &stripe.ProductSearchParams{}
	search.Query = searchQuery(p.Name)
	search.Context = ctx
	it := sc.Products.Search(search)
	if it.Next() {
		return false, nil
	}
	if err := it.Err(); err != nil {
		return false, fmt.Errorf("search: %w", err)
	}

	params := &stripe.ProductParams{
		Name:        stripe.String(p.Name),
		Description: stripe.String(p.Description),
	}
	params.Context = ctx
	params.AddMetadata("category", p.Category)
	params.AddMetadata("slug", p.Slug)
	product, err := sc.Products.New(params)
	if err != nil {
		return false, fmt.Errorf("create product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(product.ID),
		UnitAmount: stripe.Int64(p.Amount),
		Currency:   stripe.String(currency),
	}
	priceParams.Context = ctx
	if _, err := sc.Prices.New(priceParams); err != nil {
		return false, fmt.Errorf("create price: %w", err)
	}
	return true, nil
}

func searchQuery(name string) string {
	return fmt.Sprintf("name:'%s'", strings.ReplaceAll(name, "'", `\'`))
}

func formatAmount(minor int64) string {
	return "$" + decimal.New(minor, -2).StringFixed(2)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
