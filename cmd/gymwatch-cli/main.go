package main

import (
	"gymwatch-backend/cmd/gymwatch-cli/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// credentials may live in a .env file next to the binary
	godotenv.Load()

	cmd.Execute()
}
