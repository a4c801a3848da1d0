package config

import (
	"errors"
	"fmt"

	"github.com/mpbl/coinbase-go/oauth"
)

// Validate checks that all required fields are set and values are valid.
func (c *RecorderConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	for _, scope := range c.Credentials.Scopes {
		if !oauth.IsValidScope(scope) {
			return fmt.Errorf("credentials.scopes: unknown scope %q", scope)
		}
	}
	if c.Credentials.ClientID != "" && c.Credentials.RedirectURL == "" {
		return errors.New("credentials.redirect_url is required with credentials.client_id")
	}

	if err := c.Database.Timescale.validate("database.timescale"); err != nil {
		return err
	}

	if len(c.Recorder.Products) == 0 {
		return errors.New("recorder.products must name at least one product")
	}
	if c.Recorder.BatchSize < 1 {
		return errors.New("recorder.batch_size must be >= 1")
	}
	if c.Recorder.BufferSize < 1 {
		return errors.New("recorder.buffer_size must be >= 1")
	}
	if c.Recorder.PollConcurrency < 1 {
		return errors.New("recorder.poll_concurrency must be >= 1")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return errors.New("health.port must be between 1 and 65535")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be between 1 and 65535", prefix)
	}
	return nil
}
