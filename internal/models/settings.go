package models

import "github.com/shopspring/decimal"

// Settings is the operator's business configuration. Only the columns tagged
// for the database are persisted remotely; the rest live in the local cache.
type Settings struct {
	ID              string          `db:"id" json:"id,omitempty"`
	CompanyName     string          `db:"company_name" json:"company_name"`
	CompanyAddress  string          `db:"company_address" json:"company_address"`
	WhatsappNumber  string          `db:"whatsapp_number" json:"whatsapp_number"`
	DeliveryFee     decimal.Decimal `db:"delivery_fee" json:"delivery_fee"`
	MinimumOrder    decimal.Decimal `db:"minimum_order" json:"minimum_order"`
	PixEnabled      bool            `db:"pix_enabled" json:"pix_enabled"`
	PixKey          string          `db:"pix_email" json:"pix_email"`
	DeliveryRadius  decimal.Decimal `db:"-" json:"delivery_radius"`
	EstimatedTime   string          `db:"-" json:"estimated_time"`
	PreparationTime string          `db:"-" json:"preparation_time"`
	DeliveryTime    string          `db:"-" json:"delivery_time"`
}

// DeliverySettings is the checkout-facing subset of Settings
type DeliverySettings struct {
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	MinimumOrder    decimal.Decimal `json:"minimum_order"`
	DeliveryRadius  decimal.Decimal `json:"delivery_radius"`
	EstimatedTime   string          `json:"estimated_time"`
	PreparationTime string          `json:"preparation_time"`
	DeliveryTime    string          `json:"delivery_time"`
}

// Delivery extracts the delivery subset
func (s Settings) Delivery() DeliverySettings {
	return DeliverySettings{
		DeliveryFee:     s.DeliveryFee,
		MinimumOrder:    s.MinimumOrder,
		DeliveryRadius:  s.DeliveryRadius,
		EstimatedTime:   s.EstimatedTime,
		PreparationTime: s.PreparationTime,
		DeliveryTime:    s.DeliveryTime,
	}
}

// PixReady reports whether PIX instructions can be sent
func (s Settings) PixReady() bool {
	return s.PixEnabled && s.PixKey != ""
}

// SettingsPatch is a partial settings update; nil fields are left unchanged
type SettingsPatch struct {
	CompanyName     *string          `json:"company_name,omitempty"`
	CompanyAddress  *string          `json:"company_address,omitempty"`
	WhatsappNumber  *string          `json:"whatsapp_number,omitempty"`
	DeliveryFee     *decimal.Decimal `json:"delivery_fee,omitempty"`
	MinimumOrder    *decimal.Decimal `json:"minimum_order,omitempty"`
	PixEnabled      *bool            `json:"pix_enabled,omitempty"`
	PixKey          *string          `json:"pix_email,omitempty"`
	DeliveryRadius  *decimal.Decimal `json:"delivery_radius,omitempty"`
	EstimatedTime   *string          `json:"estimated_time,omitempty"`
	PreparationTime *string          `json:"preparation_time,omitempty"`
	DeliveryTime    *string          `json:"delivery_time,omitempty"`
}

// Apply returns s with every non-nil field of p applied
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.CompanyName != nil {
		s.CompanyName = *p.CompanyName
	}
	if p.CompanyAddress != nil {
		s.CompanyAddress = *p.CompanyAddress
	}
	if p.WhatsappNumber != nil {
		s.WhatsappNumber = *p.WhatsappNumber
	}
	if p.DeliveryFee != nil {
		s.DeliveryFee = *p.DeliveryFee
	}
	if p.MinimumOrder != nil {
		s.MinimumOrder = *p.MinimumOrder
	}
	if p.PixEnabled != nil {
		s.PixEnabled = *p.PixEnabled
	}
	if p.PixKey != nil {
		s.PixKey = *p.PixKey
	}
	if p.DeliveryRadius != nil {
		s.DeliveryRadius = *p.DeliveryRadius
	}
	if p.EstimatedTime != nil {
		s.EstimatedTime = *p.EstimatedTime
	}
	if p.PreparationTime != nil {
		s.PreparationTime = *p.PreparationTime
	}
	if p.DeliveryTime != nil {
		s.DeliveryTime = *p.DeliveryTime
	}
	return s
}
