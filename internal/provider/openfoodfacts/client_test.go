package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestLookupBarcodeParsesPer100gAndTags(t *testing.T) {
	t.Parallel()

	var gotPath, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "code": "3017620422003",
    "product_name": "Greek Yogurt",
    "brands": "Brand Co",
    "nutriments": {
      "energy-kcal_100g": 97,
      "energy-kcal_serving": 165,
      "proteins_100g": 9,
      "carbohydrates_100g": "3.6",
      "fat_100g": 5,
      "fiber_100g": 0
    },
    "allergens_tags": ["en:milk"],
    "ingredients_analysis_tags": ["en:palm-oil-free", "en:non-vegan", "en:vegetarian"],
    "categories_tags": ["en:dairies", "en:yogurts"]
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	p, err := c.LookupBarcode(context.Background(), "3017620422003")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if gotPath != "/api/v2/product/3017620422003.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.HasPrefix(gotAgent, "mealplan-cli/") {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
	if p.Name != "Greek Yogurt" || p.KcalPer100g != 97 || p.ProteinPer100g != 9 || p.CarbsPer100g != 3.6 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if !reflect.DeepEqual(p.Allergens, []string{"milk"}) {
		t.Fatalf("expected milk allergen, got %v", p.Allergens)
	}
	if p.Vegan || !p.Vegetarian {
		t.Fatalf("expected vegetarian non-vegan, got vegan=%v vegetarian=%v", p.Vegan, p.Vegetarian)
	}
}

func TestLookupBarcodeFallsBackToKilojoules(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Oat Drink","nutriments":{"energy-kj_100g":418.4},"ingredients_analysis_tags":["en:vegan"]}}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	p, err := c.LookupBarcode(context.Background(), "111")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if p.KcalPer100g < 99.99 || p.KcalPer100g > 100.01 {
		t.Fatalf("expected ~100 kcal, got %v", p.KcalPer100g)
	}
	if !p.Vegan || !p.Vegetarian || p.Barcode != "111" {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestLookupBarcodeNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	if _, err := c.LookupBarcode(context.Background(), "000"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestLookupBarcodeHTTPError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, err := c.LookupBarcode(context.Background(), "123")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSearchProductsSkipsUnnamed(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search_terms") != "oat milk" {
			t.Errorf("unexpected search terms %q", r.URL.Query().Get("search_terms"))
		}
		_, _ = w.Write([]byte(`{"products":[{"product_name":""},{"code":"42","product_name":"Oat Milk","nutriments":{"energy-kcal_100g":46}}]}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	items, err := c.SearchProducts(context.Background(), "oat milk", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Barcode != "42" || items[0].KcalPer100g != 46 {
		t.Fatalf("unexpected results: %+v", items)
	}
}
