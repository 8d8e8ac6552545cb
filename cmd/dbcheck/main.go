package main

import (
	"fmt"
	"os"

	"subdomtop/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	fmt.Printf("Checking database connection...\n")

	db, err := database.New(os.Getenv("DATABASE_URL"))
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var users, subdomains int
	db.Get(&users, "SELECT COUNT(*) FROM users")
	db.Get(&subdomains, "SELECT COUNT(*) FROM subdomains")

	fmt.Printf("SUCCESS: Database connection OK (%d users, %d subdomains)\n", users, subdomains)
}
