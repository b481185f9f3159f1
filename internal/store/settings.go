package store

import (
	"context"
	"database/sql"
	"errors"

	"delivery-service/internal/models"
)

// GetSettings retrieves the settings row, or nil when none exists
func (s *Store) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.GetContext(ctx, &settings, `
		SELECT id, company_name, company_address, whatsapp_number, delivery_fee,
			minimum_order, pix_enabled, pix_email
		FROM settings ORDER BY updated_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// InsertSettings creates the settings row
func (s *Store) InsertSettings(ctx context.Context, settings models.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, company_name, company_address, whatsapp_number,
			delivery_fee, minimum_order, pix_enabled, pix_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		settings.ID, settings.CompanyName, settings.CompanyAddress, settings.WhatsappNumber,
		settings.DeliveryFee, settings.MinimumOrder, settings.PixEnabled, settings.PixKey)
	return err
}

// UpdateSettings overwrites the settings row identified by settings.ID
func (s *Store) UpdateSettings(ctx context.Context, settings models.Settings) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE settings SET company_name = $1, company_address = $2, whatsapp_number = $3,
			delivery_fee = $4, minimum_order = $5, pix_enabled = $6, pix_email = $7,
			updated_at = NOW()
		WHERE id = $8`,
		settings.CompanyName, settings.CompanyAddress, settings.WhatsappNumber,
		settings.DeliveryFee, settings.MinimumOrder, settings.PixEnabled, settings.PixKey,
		settings.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, "settings", settings.ID)
}
