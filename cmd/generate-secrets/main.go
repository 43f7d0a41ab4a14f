package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/travel-backend/internal/utils"
)

func main() {
	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to generate secrets")
	}

	fmt.Fprintln(os.Stderr, "# Add these to your .env file. Never commit them.")
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)
}
