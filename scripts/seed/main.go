// Command seed fills an empty backend with demo products through the admin
// API. Products whose name already exists are skipped, so reruns are safe.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/binaragam/storefront/internal/apiclient"
	"github.com/binaragam/storefront/internal/auth"
	"github.com/binaragam/storefront/internal/catalog"
)

type demoProduct struct {
	Name        string
	Price       float64
	Discount    float64
	Image       string
	Marketplace string
	Description string
}

var demoProducts = []demoProduct{
	{Name: "Kaos Polos Premium", Price: 89000, Image: "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab", Marketplace: "https://shopee.co.id/binaragam", Description: "Katun combed 30s, potongan regular fit."},
	{Name: "Kemeja Batik Tulis", Price: 325000, Discount: 15, Image: "https://images.unsplash.com/photo-1603252109303-2751441dd157", Marketplace: "https://www.tokopedia.com/binaragam", Description: "Batik tulis tangan motif parang."},
	{Name: "Tote Bag Kanvas", Price: 65000, Marketplace: "https://shopee.co.id/binaragam", Description: "Kanvas tebal dengan sablon minimalis."},
	{Name: "Topi Bucket", Price: 75000, Discount: 10, Marketplace: "https://www.tokopedia.com/binaragam", Description: "Bahan drill, nyaman dipakai harian."},
}

func main() {
	backendURL := getenv("BACKEND_URL", "http://localhost:8000")
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := apiclient.New(backendURL)
	token, err := auth.NewService(client).Login(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		log.Fatalf("login as %s: %v", email, err)
	}
	products := catalog.NewService(client)

	existing, err := products.List(ctx, catalog.ListParams{})
	if err != nil {
		log.Fatalf("list products: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[strings.ToLower(p.Name)] = true
	}

	fmt.Println("→ Seeding products...")
	created := 0
	for _, demo := range demoProducts {
		if seen[strings.ToLower(demo.Name)] {
			fmt.Printf("  skip %s\n", demo.Name)
			continue
		}
		input := catalog.ProductInput{
			Name:            demo.Name,
			Price:           demo.Price,
			ImageURL:        demo.Image,
			Description:     demo.Description,
			MarketplaceLink: demo.Marketplace,
		}
		if demo.Discount > 0 {
			input.Discount = &catalog.Discount{Active: true, Percentage: demo.Discount}
		}
		if err := products.Create(ctx, token, input); err != nil {
			log.Fatalf("create %s: %v", demo.Name, err)
		}
		created++
	}

	fmt.Printf("✓ Seed complete at %s (%d created)\n", time.Now().Format(time.RFC3339), created)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
