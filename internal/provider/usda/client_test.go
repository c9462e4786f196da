package usda

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchFoodsParsesPer100gNutrients(t *testing.T) {
	t.Parallel()

	var gotKey string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/fdc/v1/foods/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.URL.Query().Get("api_key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "foods": [
    {
      "fdcId": 172420,
      "description": "Lentils, mature seeds, cooked, boiled",
      "dataType": "SR Legacy",
      "foodCategory": "Legumes and Legume Products",
      "foodNutrients": [
        {"nutrientName": "Energy", "unitName": "KCAL", "value": 116},
        {"nutrientName": "Energy", "unitName": "kJ", "value": 485},
        {"nutrientName": "Protein", "unitName": "G", "value": 9.02},
        {"nutrientName": "Carbohydrate, by difference", "unitName": "G", "value": 20.1},
        {"nutrientName": "Total lipid (fat)", "unitName": "G", "value": 0.38},
        {"nutrientName": "Fiber, total dietary", "unitName": "G", "value": 7.9}
      ]
    }
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
	foods, err := c.SearchFoods(context.Background(), "lentils", 5)
	if err != nil {
		t.Fatalf("search foods: %v", err)
	}
	if gotKey != "demo" || gotBody["query"] != "lentils" || gotBody["pageSize"] != float64(5) {
		t.Fatalf("unexpected request key=%q body=%v", gotKey, gotBody)
	}
	if len(foods) != 1 {
		t.Fatalf("expected 1 food, got %d", len(foods))
	}
	f := foods[0]
	if f.FDCID != 172420 || f.FoodCategory != "Legumes and Legume Products" {
		t.Fatalf("unexpected identity: %+v", f)
	}
	if f.KcalPer100g != 116 || f.ProteinPer100g != 9.02 || f.CarbsPer100g != 20.1 || f.FatPer100g != 0.38 || f.FiberPer100g != 7.9 {
		t.Fatalf("unexpected nutrients: %+v", f)
	}
}

func TestSearchFoodsFallsBackToKilojoules(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"foods": [{"fdcId": 1, "description": "Oats", "foodNutrients": [
  {"nutrientName": "Energy", "unitName": "kJ", "value": 418.4}
]}]}`))
	}))
	defer ts.Close()

	c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
	foods, err := c.SearchFoods(context.Background(), "oats", 0)
	if err != nil {
		t.Fatalf("search foods: %v", err)
	}
	if math.Abs(foods[0].KcalPer100g-100) > 1e-9 {
		t.Fatalf("expected 100 kcal from kJ, got %v", foods[0].KcalPer100g)
	}
}

func TestSearchFoodsRequiresAPIKey(t *testing.T) {
	t.Parallel()
	c := &Client{}
	if _, err := c.SearchFoods(context.Background(), "rice", 5); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestSearchFoodsReportsHTTPStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := &Client{APIKey: "bad", BaseURL: ts.URL, HTTPClient: ts.Client()}
	if _, err := c.SearchFoods(context.Background(), "rice", 5); err == nil {
		t.Fatalf("expected status error")
	}
}
