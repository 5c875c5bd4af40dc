package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	Long:  `Remove the stored session token. Running it without a session is not an error.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			log.Fatalf("failed to initialize dependencies: %v", err)
		}
		defer deps.Close()

		if err := deps.Auth.Invalidate(); err != nil {
			log.Fatalf("logout failed: %v", err)
		}

		fmt.Println("Logged out")
	},
}
