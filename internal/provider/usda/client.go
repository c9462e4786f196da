package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.nal.usda.gov"
	kjPerKcal      = 4.184
	maxPageSize    = 50
)

// dataTypes report nutrients per 100 g. Branded foods report per serving and
// are left out.
var dataTypes = []string{"Foundation", "SR Legacy"}

// Food is a FoodData Central entry reduced to per-100g macros.
type Food struct {
	FDCID          int64
	Description    string
	DataType       string
	FoodCategory   string
	KcalPer100g    float64
	ProteinPer100g float64
	CarbsPer100g   float64
	FatPer100g     float64
	FiberPer100g   float64
}

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]Food, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("missing USDA API key")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 || limit > maxPageSize {
		limit = 10
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	payload, err := json.Marshal(map[string]any{
		"query":    query,
		"dataType": dataTypes,
		"pageSize": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal USDA search payload: %w", err)
	}
	u := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", baseURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode USDA response: %w", err)
	}
	out := make([]Food, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		out = append(out, toFood(f))
	}
	return out, nil
}

func toFood(f usdaFood) Food {
	out := Food{
		FDCID:        f.FDCID,
		Description:  strings.TrimSpace(f.Description),
		DataType:     f.DataType,
		FoodCategory: strings.TrimSpace(f.FoodCategory),
	}
	var kj float64
	for _, n := range f.FoodNutrients {
		name := strings.ToLower(strings.TrimSpace(n.NutrientName))
		unit := strings.ToLower(strings.TrimSpace(n.UnitName))
		switch {
		case strings.HasPrefix(name, "energy"):
			// Foundation foods list several energy rows; the first kcal row wins.
			if unit == "kj" {
				if kj == 0 {
					kj = n.Value
				}
			} else if out.KcalPer100g == 0 {
				out.KcalPer100g = n.Value
			}
		case name == "protein":
			out.ProteinPer100g = n.Value
		case name == "carbohydrate, by difference":
			out.CarbsPer100g = n.Value
		case name == "total lipid (fat)":
			out.FatPer100g = n.Value
		case name == "fiber, total dietary":
			out.FiberPer100g = n.Value
		}
	}
	if out.KcalPer100g == 0 && kj > 0 {
		out.KcalPer100g = kj / kjPerKcal
	}
	return out
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID         int64          `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	FoodCategory  string         `json:"foodCategory"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
