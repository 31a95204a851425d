package database

import (
	"gorm.io/gorm"
)

// RunMigrations applies the constraints AutoMigrate cannot express.
// Postgres only; tests run against AutoMigrate alone.
func RunMigrations(db *gorm.DB) error {
	if err := AutoMigrate(db); err != nil {
		return err
	}

	constraints := []struct {
		drop string
		add  string
	}{
		{
			drop: `ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`,
			add:  `ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('pending', 'confirmed', 'cancelled'))`,
		},
		{
			drop: `ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_type_check`,
			add:  `ALTER TABLE bookings ADD CONSTRAINT bookings_type_check CHECK (booking_type IN ('Rent', 'Sale'))`,
		},
		{
			drop: `ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_total_price_check`,
			add:  `ALTER TABLE bookings ADD CONSTRAINT bookings_total_price_check CHECK (total_price >= 0)`,
		},
		{
			drop: `ALTER TABLE listings DROP CONSTRAINT IF EXISTS listings_status_check`,
			add:  `ALTER TABLE listings ADD CONSTRAINT listings_status_check CHECK (status IN ('active', 'pending', 'sold', 'rented', 'inactive'))`,
		},
		{
			drop: `ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`,
			add:  `ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('user', 'admin'))`,
		},
		{
			drop: `ALTER TABLE reviews DROP CONSTRAINT IF EXISTS reviews_rating_check`,
			add:  `ALTER TABLE reviews ADD CONSTRAINT reviews_rating_check CHECK (rating BETWEEN 1 AND 5)`,
		},
	}

	for _, c := range constraints {
		if err := db.Exec(c.drop).Error; err != nil {
			return err
		}
		if err := db.Exec(c.add).Error; err != nil {
			return err
		}
	}

	return nil
}
