package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ImageKind tells which legacy shape an image reference was read from
type ImageKind int

const (
	// ImageRaw is a bare URL string
	ImageRaw ImageKind = iota
	// ImageWrapped is an object carrying the URL under "value"
	ImageWrapped
)

// ImageRef is a product image URL. Cached products written by older clients
// carry either a plain string or {"value": "..."}; both decode here and are
// always written back as a plain string.
type ImageRef struct {
	Kind     ImageKind
	Location string
}

// URL returns the image location
func (r ImageRef) URL() string { return r.Location }

// MarshalJSON implements json.Marshaler
func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Location)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *ImageRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ImageRef{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ImageRef{Kind: ImageRaw, Location: s}
		return nil
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*r = ImageRef{Kind: ImageWrapped, Location: wrapped.Value}
	return nil
}

// Value implements driver.Valuer
func (r ImageRef) Value() (driver.Value, error) {
	return r.Location, nil
}

// Scan implements sql.Scanner
func (r *ImageRef) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		*r = ImageRef{Kind: ImageRaw, Location: string(v)}
	case string:
		*r = ImageRef{Kind: ImageRaw, Location: v}
	default:
		*r = ImageRef{}
	}
	return nil
}

// Product represents a menu item
type Product struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Category    string          `db:"category" json:"category"`
	Image       ImageRef        `db:"image_url" json:"image"`
	Available   bool            `db:"available" json:"available"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
