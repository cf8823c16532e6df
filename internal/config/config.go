// Package config reads process configuration. Each function process is
// configured through its environment; viper binds the variables and supplies
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	TableName     string
	GSIName       string
	EventBusName  string
	ArchiveBucket string
	UserPoolID    string
	Region        string
	JWKSTTL       time.Duration
	LogLevel      string
}

// Load binds environment variables and validates the fields the caller needs.
// Fields irrelevant to a given process may be empty; each main validates its
// own requirements via Require.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetDefault("GSI1_NAME", "GSI1")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("JWKS_TTL", "10m")
	v.SetDefault("LOG_LEVEL", "info")

	return &Config{
		TableName:     v.GetString("DYNAMODB_TABLE_NAME"),
		GSIName:       v.GetString("GSI1_NAME"),
		EventBusName:  v.GetString("EVENT_BUS_NAME"),
		ArchiveBucket: v.GetString("S3_BUCKET_NAME"),
		UserPoolID:    v.GetString("USER_POOL_ID"),
		Region:        v.GetString("AWS_REGION"),
		JWKSTTL:       v.GetDuration("JWKS_TTL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
	}
}

// JWKSURL derives the issuer's published key set location.
func (c *Config) JWKSURL() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", c.Region, c.UserPoolID)
}

// Require fails fast when a process starts without its mandatory settings.
func (c *Config) Require(fields ...string) error {
	values := map[string]string{
		"DYNAMODB_TABLE_NAME": c.TableName,
		"EVENT_BUS_NAME":      c.EventBusName,
		"S3_BUCKET_NAME":      c.ArchiveBucket,
		"USER_POOL_ID":        c.UserPoolID,
	}
	for _, f := range fields {
		if values[f] == "" {
			return fmt.Errorf("%s is required", f)
		}
	}
	return nil
}
