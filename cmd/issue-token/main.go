package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/service"
	"golang.org/x/term"
)

// issue-token mints a token for local testing against a running server.
func main() {
	userID := flag.Int64("user", 0, "user id carried by the token")
	role := flag.String("role", string(service.RoleUser), "token role: user or monitor")
	flag.Parse()

	cfg := config.Load()

	if *userID <= 0 {
		fmt.Println("Error: -user must be a positive id")
		os.Exit(1)
	}
	r := service.Role(*role)
	if r != service.RoleUser && r != service.RoleMonitor {
		fmt.Println("Error: -role must be user or monitor")
		os.Exit(1)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		fmt.Print("Enter JWT Secret: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Println("Error reading secret")
			os.Exit(1)
		}
		secret = string(raw)
	}

	token, err := service.NewAuthService(secret, cfg.JWTExpiry).GenerateToken(*userID, r)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
