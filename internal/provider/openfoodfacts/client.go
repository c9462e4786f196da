package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "mealplan-cli/1.0 (+https://github.com/saadjs/mealplan-cli)"
	productFields  = "code,product_name,brands,nutriments,allergens_tags,ingredients_analysis_tags,categories_tags"
)

// Product is an Open Food Facts product reduced to per-100g values.
type Product struct {
	Barcode        string
	Name           string
	Brand          string
	KcalPer100g    float64
	ProteinPer100g float64
	CarbsPer100g   float64
	FatPer100g     float64
	FiberPer100g   float64
	// Allergens are OFF allergen tags with the language prefix removed,
	// e.g. "en:milk" becomes "milk".
	Allergens      []string
	Vegan          bool
	Vegetarian     bool
	CategoriesTags []string
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) base() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return defaultBaseURL
	}
	return base
}

func (c *Client) get(ctx context.Context, u, what string) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create openfoodfacts %s request: %w", what, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts %s request: %w", what, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openfoodfacts %s response: %w", what, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("openfoodfacts %s request failed with status %d", what, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, fmt.Errorf("barcode is required")
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json?fields=%s", c.base(), url.PathEscape(barcode), productFields)
	body, err := c.get(ctx, u, "product")
	if err != nil {
		return Product{}, err
	}
	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return Product{}, fmt.Errorf("no openfoodfacts product found for barcode %q", barcode)
	}
	p := toProduct(parsed.Product)
	if p.Barcode == "" {
		p.Barcode = barcode
	}
	return p, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d&fields=%s",
		c.base(), url.QueryEscape(query), limit, productFields)
	body, err := c.get(ctx, u, "search")
	if err != nil {
		return nil, err
	}
	var parsed offSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode openfoodfacts search response: %w", err)
	}
	out := make([]Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		out = append(out, toProduct(p))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no openfoodfacts product found for query %q", query)
	}
	return out, nil
}

func toProduct(p offProduct) Product {
	out := Product{
		Barcode:        strings.TrimSpace(p.Code),
		Name:           strings.TrimSpace(p.ProductName),
		Brand:          strings.TrimSpace(p.Brands),
		KcalPer100g:    per100g(p.Nutriments, "energy-kcal"),
		ProteinPer100g: per100g(p.Nutriments, "proteins"),
		CarbsPer100g:   per100g(p.Nutriments, "carbohydrates"),
		FatPer100g:     per100g(p.Nutriments, "fat"),
		FiberPer100g:   per100g(p.Nutriments, "fiber"),
		Allergens:      stripLangPrefix(p.AllergensTags),
		CategoriesTags: stripLangPrefix(p.CategoriesTags),
	}
	if out.KcalPer100g == 0 {
		if kj := per100g(p.Nutriments, "energy-kj"); kj > 0 {
			out.KcalPer100g = kj / 4.184
		}
	}
	for _, tag := range stripLangPrefix(p.IngredientsAnalysisTags) {
		switch tag {
		case "vegan":
			out.Vegan = true
			out.Vegetarian = true
		case "vegetarian":
			out.Vegetarian = true
		}
	}
	return out
}

func per100g(n map[string]any, base string) float64 {
	if v, ok := parseFloatAny(n[base+"_100g"]); ok {
		return v
	}
	return 0
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stripLangPrefix(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if i := strings.IndexByte(t, ':'); i >= 0 {
			t = t[i+1:]
		}
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code                    string         `json:"code"`
	ProductName             string         `json:"product_name"`
	Brands                  string         `json:"brands"`
	Nutriments              map[string]any `json:"nutriments"`
	AllergensTags           []string       `json:"allergens_tags"`
	IngredientsAnalysisTags []string       `json:"ingredients_analysis_tags"`
	CategoriesTags          []string       `json:"categories_tags"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
