// Command issuetoken mints a bearer token for a participant so the API can
// be exercised without an external identity provider.
//
// Usage:
//
//	JWT_SECRET=... issuetoken -participant alice [-ttl 24h]
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/mmynk/yieldcircles/internal/auth"
	"github.com/mmynk/yieldcircles/internal/config"
)

type tokenConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

func main() {
	var cfg tokenConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("issuetoken: %v", err)
	}

	participant := flag.String("participant", "", "participant id to embed in the token")
	ttl := flag.Duration("ttl", cfg.TokenTTL, "token lifetime")
	flag.Parse()

	token, err := auth.NewJWTManager(cfg.JWTSecret, *ttl).Generate(*participant)
	if err != nil {
		config.Exitf("issuetoken: %v", err)
	}
	fmt.Println(token)
}
