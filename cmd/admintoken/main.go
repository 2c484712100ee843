// Command admintoken issues bearer tokens for the fulfillsync admin API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ibeloyar/fulfillsync/internal/model"
	"github.com/ibeloyar/fulfillsync/pgk/auth"
)

func main() {
	operator := flag.String("operator", "", "Operator name stored in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_JWT_SECRET is required")
	}
	if *operator == "" {
		log.Fatal("-operator is required")
	}

	token, err := auth.GenerateBearerToken(model.Operator{Name: *operator}, *ttl, secret)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
