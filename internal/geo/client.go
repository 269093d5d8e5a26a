// Package geo fetches IRIS sector geometries of a commune from a paginated
// open-data records API.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/flyerdrop/tournees-api/internal/config"
)

var (
	ErrInvalidCommuneCode = errors.New("invalid commune code")
	ErrUnexpectedStatus   = errors.New("unexpected status from geometry API")
)

// Feature is one IRIS sector as returned by the geometry API.
type Feature struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	HousingUnits int             `json:"housing_units,omitempty"`
	Geometry     json.RawMessage `json:"geometry,omitempty"`
}

type Fetcher interface {
	FetchSectors(ctx context.Context, communeCode string) ([]Feature, error)
}

type recordsPage struct {
	TotalCount int                          `json:"total_count"`
	Results    []map[string]json.RawMessage `json:"results"`
}

type Client struct {
	httpClient *resty.Client
	conf       *config.GeoConfig
	logger     *zap.Logger
}

func NewClient(conf *config.GeoConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.L()
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(conf.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(conf.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		conf:       conf,
		logger:     logger,
	}
}

// FetchSectors loads every sector of a commune, one page at a time, until a
// short page is returned or MaxPages pages have been read.
func (c *Client) FetchSectors(ctx context.Context, communeCode string) ([]Feature, error) {
	if !validCommuneCode(communeCode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCommuneCode, communeCode)
	}

	pageSize := c.conf.PageSize
	var features []Feature
	for page := 0; page < c.conf.MaxPages; page++ {
		var body recordsPage
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetPathParam("dataset", c.conf.Dataset).
			SetQueryParams(map[string]string{
				"where":  fmt.Sprintf(`%s="%s"`, c.conf.CommuneField, communeCode),
				"limit":  strconv.Itoa(pageSize),
				"offset": strconv.Itoa(page * pageSize),
			}).
			SetResult(&body).
			Get("/catalog/datasets/{dataset}/records")
		if err != nil {
			return nil, fmt.Errorf("c.httpClient.Get -> %w", err)
		}
		if resp.IsError() {
			c.logger.Error("geometry API returned an error",
				zap.String("commune_code", communeCode),
				zap.Int("status_code", resp.StatusCode()),
			)
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
		}

		for _, record := range body.Results {
			features = append(features, c.toFeature(record))
		}
		if len(body.Results) < pageSize {
			return features, nil
		}
	}

	c.logger.Warn("geometry API page cap reached",
		zap.String("commune_code", communeCode),
		zap.Int("max_pages", c.conf.MaxPages),
		zap.Int("features", len(features)),
	)

	return features, nil
}

func (c *Client) toFeature(record map[string]json.RawMessage) Feature {
	f := Feature{
		Code:     stringField(record[c.conf.CodeField]),
		Name:     stringField(record[c.conf.NameField]),
		Geometry: geometryField(record[c.conf.GeometryField]),
	}
	if c.conf.HousingField != "" {
		f.HousingUnits = intField(record[c.conf.HousingField])
	}

	return f
}

func validCommuneCode(code string) bool {
	if code == "" || len(code) > 5 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) && !unicode.IsUpper(r) {
			return false
		}
	}

	return true
}

// stringField reads a text field that the API returns either as a string or as
// a single-element array.
func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}

	return ""
}

func intField(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil && f > 0 {
		return int(f + 0.5)
	}
	if n, err := strconv.Atoi(stringField(raw)); err == nil && n > 0 {
		return n
	}

	return 0
}

// geometryField unwraps {"type":"Feature","geometry":{...}} shapes down to the
// bare geometry.
func geometryField(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var wrapped struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Type == "Feature" && len(wrapped.Geometry) > 0 {
		return wrapped.Geometry
	}

	return raw
}
