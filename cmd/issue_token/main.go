// Command issue_token prints a bearer token for calling the API with AUTH_REQUIRED=true.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/pageza/kitchen-buddy/backend/config"
	"github.com/pageza/kitchen-buddy/backend/internal/service"
)

func main() {
	user := flag.String("user", "", "User id to embed (random when empty)")
	ttl := flag.Duration("ttl", 0, "Token lifetime (default 24h)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	userID := uuid.New()
	if *user != "" {
		if userID, err = uuid.Parse(*user); err != nil {
			slog.Error("invalid user id", "user", *user, "error", err)
			os.Exit(1)
		}
	}

	token, err := service.NewAuthService(cfg.JWTSecret, *ttl).GenerateToken(userID)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
