package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.PasswordHashCost < bcrypt.MinCost || c.Auth.PasswordHashCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.password_hash_cost must be between %d and %d (got %d)",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.PasswordHashCost)
	}
	if c.Listing.PageSize <= 0 {
		return fmt.Errorf("listing.page_size must be > 0 (got %d)", c.Listing.PageSize)
	}
	if c.Listing.MaxPageSize < c.Listing.PageSize {
		return fmt.Errorf("listing.max_page_size must be >= page_size (got %d < %d)",
			c.Listing.MaxPageSize, c.Listing.PageSize)
	}
	if c.Upload.MaxConcurrent <= 0 {
		return fmt.Errorf("upload.max_concurrent must be > 0 (got %d)", c.Upload.MaxConcurrent)
	}
	if c.Watch.SubscriberBuffer <= 0 {
		return fmt.Errorf("watch.subscriber_buffer must be > 0 (got %d)", c.Watch.SubscriberBuffer)
	}
	return nil
}
