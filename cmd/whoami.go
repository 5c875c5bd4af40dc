package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	internalerrors "github.com/ldelorme/crm-backoffice/internal"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Long:  `Print the user behind the stored session, or report that nobody is logged in.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			log.Fatalf("failed to initialize dependencies: %v", err)
		}
		defer deps.Close()

		session, err := deps.Auth.CurrentSession()
		if err != nil {
			if errors.Is(err, internalerrors.ErrNoSession) {
				fmt.Println("Not logged in")
				os.Exit(1)
			}
			log.Fatalf("failed to read session: %v", err)
		}

		actor, err := deps.Auth.CurrentActor()
		if err != nil {
			log.Fatalf("failed to load user: %v", err)
		}

		fmt.Printf("%s <%s>\n", actor.Name, actor.Email)
		fmt.Printf("Employee number: %s\n", actor.EmployeeNumber)
		fmt.Printf("Department: %s\n", actor.Department)
		fmt.Printf("Session expires: %s\n", session.ExpiresAt.Local().Format(time.RFC822))
	},
}
