package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// Validate reports the first required setting that is missing. The server
// calls MustNonEmpty on the same keys; tests use Validate.
func (c Config) Validate() error {
	required := []struct{ value, name string }{
		{c.DatabaseURL, "DATABASE_URL"},
		{c.JWTAccessSecret, "JWT_SECRET"},
		{c.JWTRefreshSecret, "JWT_REFRESH_SECRET"},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingError{Name: r.name}
		}
	}
	return nil
}

type MissingError struct{ Name string }

func (e *MissingError) Error() string { return "missing required env " + e.Name }
