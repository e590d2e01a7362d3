package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/account-idm/pkg/config"
	"github.com/tendant/account-idm/pkg/tokengenerator"
)

func main() {
	// Defaults come from the same environment cmd/accountd reads
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	secret := flag.String("secret", cfg.JWT.Secret, "Secret key for signing the token")
	issuer := flag.String("issuer", cfg.JWT.Issuer, "Issuer of the token")
	subject := flag.String("subject", "", "Account id the token is issued for (required)")
	kind := flag.String("kind", tokengenerator.LOGIN_TOKEN_NAME, "Token kind: login or register")
	expiry := flag.Duration("expiry", time.Hour, "Token expiry duration (e.g., 30m, 1h, 24h)")
	outputFormat := flag.String("format", "compact", "Output format: compact, full, or debug")
	flag.Parse()

	if _, err := uuid.Parse(*subject); err != nil {
		fmt.Fprintf(os.Stderr, "Error: -subject must be an account id: %v\n", err)
		os.Exit(1)
	}

	tokenGen := tokengenerator.NewJwtTokenGenerator(*secret, *issuer)

	tokenStr, expiryTime, err := tokenGen.GenerateToken(*subject, *kind, *expiry)
	if err != nil {
		slog.Error("Failed to generate token", "err", err)
		fmt.Fprintf(os.Stderr, "Error: Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "compact":
		fmt.Println(tokenStr)
	case "full":
		fmt.Printf("Token: %s\nExpires: %s\n", tokenStr, expiryTime.Format(time.RFC3339))
	case "debug":
		claims, err := tokenGen.ParseToken(tokenStr)
		if err != nil {
			slog.Error("Failed to parse generated token", "err", err)
			fmt.Fprintf(os.Stderr, "Error: Failed to parse generated token: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("=== Token Information ===\n")
		fmt.Printf("Token: %s\n\n", tokenStr)
		fmt.Printf("=== Token Claims ===\n")
		claimsJSON, _ := json.MarshalIndent(claims, "", "  ")
		fmt.Printf("%s\n\n", claimsJSON)
		fmt.Printf("Expires: %s\n", expiryTime.Format(time.RFC3339))
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown output format: %s\n", *outputFormat)
		os.Exit(1)
	}
}
