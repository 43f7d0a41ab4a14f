package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ItineraryDay is one entry of a package itinerary
type ItineraryDay struct {
	Day         int    `json:"day" validate:"gte=1"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

// Itinerary is an ordered itinerary stored as JSONB
type Itinerary []ItineraryDay

// Value implements the driver.Valuer interface
func (it Itinerary) Value() (driver.Value, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal itinerary: %w", err)
	}
	return b, nil
}

// Scan implements the sql.Scanner interface
func (it *Itinerary) Scan(src interface{}) error {
	if src == nil {
		*it = Itinerary{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported itinerary source type %T", src)
	}

	return json.Unmarshal(data, it)
}

// JSONMap is a JSONB object column
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json source type %T", src)
	}

	return json.Unmarshal(data, m)
}
