// Команда devtoken выпускает bearer-токен для провайдера local.
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/devtoken -uid dev-user -email dev@example.com
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/magabrotheeeer/biteplans/internal/config"
	"github.com/magabrotheeeer/biteplans/internal/identity"
)

func main() {
	uid := flag.String("uid", "dev-user", "subject uid")
	email := flag.String("email", "dev@example.com", "email claim")
	flag.Parse()

	cfg := config.MustLoad()
	if cfg.Provider != config.IdentityLocal {
		log.Fatalf("identity provider is %q, tokens can only be issued for %q", cfg.Provider, config.IdentityLocal)
	}

	verifier := identity.NewLocalVerifier(cfg.LocalSecret, cfg.LocalTokenTTL, cfg.TimeoutIdentity)
	token, err := verifier.IssueToken(*uid, *email)
	if err != nil {
		log.Fatalf("cannot issue token: %s", err)
	}
	fmt.Println(token)
}
