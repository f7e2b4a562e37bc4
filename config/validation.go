package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirements lists settings that must be present in a given environment
type requirements struct {
	JWTSecret    bool
	AuthRequired bool
	LLMAPIKey    bool
}

var envRequirements = map[Environment]requirements{
	Development: {},
	Test:        {},
	CI:          {},
	Production: {
		JWTSecret:    true,
		AuthRequired: true,
		LLMAPIKey:    true,
	},
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	reqs := envRequirements[env]

	var errs []ValidationError

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" && (cfg.DBHost == "" || cfg.DBName == "" || cfg.DBUser == "") {
			errs = append(errs, ValidationError{"DATABASE_URL", "either DATABASE_URL or DB_HOST, DB_NAME and DB_USER must be set"})
		}
	case "sqlite":
		if env == Production {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not supported in production"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	switch cfg.LLMProvider {
	case "openai", "anthropic":
	default:
		errs = append(errs, ValidationError{"LLM_PROVIDER", fmt.Sprintf("unsupported provider %q", cfg.LLMProvider)})
	}

	if _, err := uuid.Parse(cfg.DefaultUserID); err != nil {
		errs = append(errs, ValidationError{"DEFAULT_USER_ID", "must be a UUID"})
	}
	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT_REQUESTS", "must be positive"})
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT_WINDOW", "must be positive"})
	}
	if cfg.AuthRequired && cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "required when AUTH_REQUIRED is true"})
	}

	if reqs.JWTSecret && cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", fmt.Sprintf("required in %s", env)})
	}
	if reqs.AuthRequired && !cfg.AuthRequired {
		errs = append(errs, ValidationError{"AUTH_REQUIRED", fmt.Sprintf("must be true in %s", env)})
	}
	if reqs.LLMAPIKey && cfg.LLMAPIKey == "" {
		errs = append(errs, ValidationError{"LLM_API_KEY", fmt.Sprintf("required in %s", env)})
	}

	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "\n"))
	}

	return nil
}
