package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	internalerrors "github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/client"
	clientpg "github.com/ldelorme/crm-backoffice/internal/client/postgres"
	"github.com/ldelorme/crm-backoffice/internal/contract"
	contractpg "github.com/ldelorme/crm-backoffice/internal/contract/postgres"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
	"github.com/ldelorme/crm-backoffice/internal/event"
	"github.com/ldelorme/crm-backoffice/internal/policy"
	"github.com/ldelorme/crm-backoffice/internal/user"
	userpg "github.com/ldelorme/crm-backoffice/internal/user/postgres"
	"github.com/ldelorme/crm-backoffice/pkg/logger"
)

var (
	seedEmail          string
	seedPassword       string
	seedName           string
	seedEmployeeNumber string
	seedSample         bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the bootstrap management user",
	Long:  `Create the first management user while the user table is empty, and optionally a small sample dataset for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			log.Fatalf("failed to initialize dependencies: %v", err)
		}
		defer deps.Close()

		ctx := logger.With(context.Background(), "command", "seed")

		admin := seedBootstrapUser(ctx, deps)

		if seedSample {
			seedSampleData(ctx, deps, admin)
		}
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "admin@crm.example.com", "email of the bootstrap management user")
	seedCmd.Flags().StringVar(&seedPassword, "password", "ChangeMe123", "password of the bootstrap management user")
	seedCmd.Flags().StringVar(&seedName, "name", "Administrator", "name of the bootstrap management user")
	seedCmd.Flags().StringVar(&seedEmployeeNumber, "employee-number", "100000", "employee number of the bootstrap management user")
	seedCmd.Flags().BoolVar(&seedSample, "sample", false, "also seed sample users, a client, contracts and an event")
}

func seedBootstrapUser(ctx context.Context, deps *Dependencies) *usermodel.User {
	created, err := deps.Users.BootstrapUser(ctx, user.CreateUserDTO{
		Name:           seedName,
		Email:          seedEmail,
		Password:       seedPassword,
		EmployeeNumber: seedEmployeeNumber,
		Department:     string(usermodel.DepartmentGestion),
	})
	if err == nil {
		fmt.Println("Seeded management user:", created.Email)
		fmt.Println("Change its password after the first login.")
		return created
	}
	if !internalerrors.IsPermissionDeniedError(err) {
		log.Fatalf("failed to seed management user: %v", err)
	}

	// Users already exist; reuse the one matching --email so --sample
	// still has an actor to work with.
	existing, lookupErr := userpg.NewUserRepository(deps.DB.Gorm).GetByEmail(seedEmail)
	if lookupErr != nil {
		log.Fatalf("failed to look up existing user: %v", lookupErr)
	}
	if existing == nil {
		log.Fatalf("users already exist and %s is not one of them; pass --email of an existing management user", seedEmail)
	}
	fmt.Println("Management user already exists:", existing.Email)
	return existing
}

func seedSampleData(ctx context.Context, deps *Dependencies, admin *usermodel.User) {
	gestion := policy.ActorFromUser(admin)

	commercial := ensureSampleUser(ctx, deps, gestion, user.CreateUserDTO{
		Name:           "Carole Dupont",
		Email:          "carole.dupont@crm.example.com",
		Password:       "ChangeMe123",
		EmployeeNumber: "100001",
		Department:     string(usermodel.DepartmentCommercial),
	})
	support := ensureSampleUser(ctx, deps, gestion, user.CreateUserDTO{
		Name:           "Simon Bernard",
		Email:          "simon.bernard@crm.example.com",
		Password:       "ChangeMe123",
		EmployeeNumber: "100002",
		Department:     string(usermodel.DepartmentSupport),
	})

	clientRepo := clientpg.NewClientRepository(deps.DB.Gorm)
	sampleClient, err := clientRepo.GetByEmail("kevin@coolstartup.io")
	if err != nil {
		log.Fatalf("failed to look up sample client: %v", err)
	}
	if sampleClient == nil {
		sampleClient, err = deps.Clients.CreateClient(ctx, policy.ActorFromUser(commercial), client.CreateClientDTO{
			FullName:    "Kevin Casey",
			Email:       "kevin@coolstartup.io",
			Phone:       "0678904532",
			CompanyName: "Cool Startup LLC",
		})
		if err != nil {
			log.Fatalf("failed to seed sample client: %v", err)
		}
		fmt.Println("Seeded sample client:", sampleClient.Email)
	}

	contractRepo := contractpg.NewContractRepository(deps.DB.Gorm)
	existing, err := contractRepo.ListByClient(sampleClient.ID)
	if err != nil {
		log.Fatalf("failed to list sample contracts: %v", err)
	}
	if len(existing) > 0 {
		fmt.Println("Sample contracts already exist, nothing left to seed")
		return
	}

	remaining := int64(750_000)
	signed, err := deps.Contracts.CreateContract(ctx, gestion, contract.CreateContractDTO{
		ClientID:        sampleClient.ID,
		TotalAmount:     1_500_000,
		RemainingAmount: &remaining,
	})
	if err != nil {
		log.Fatalf("failed to seed sample contract: %v", err)
	}
	signContract := true
	if _, err := deps.Contracts.UpdateContract(ctx, gestion, signed.ID, contract.UpdateContractPatch{IsSigned: &signContract}); err != nil {
		log.Fatalf("failed to sign sample contract: %v", err)
	}
	if _, err := deps.Contracts.CreateContract(ctx, gestion, contract.CreateContractDTO{
		ClientID:    sampleClient.ID,
		TotalAmount: 480_000,
	}); err != nil {
		log.Fatalf("failed to seed sample contract: %v", err)
	}
	fmt.Println("Seeded one signed and one unsigned sample contract")

	start := time.Now().AddDate(0, 1, 0).Truncate(time.Hour)
	sampleEvent, err := deps.Events.CreateEvent(ctx, policy.ActorFromUser(commercial), event.CreateEventDTO{
		ContractID:     signed.ID,
		EventStartDate: start,
		EventEndDate:   start.Add(6 * time.Hour),
		Location:       "53 Rue du Château, 41120 Candé-sur-Beuvron",
		Attendees:      75,
		Notes:          "Wedding reception, client expects the setup done by noon.",
	})
	if err != nil {
		log.Fatalf("failed to seed sample event: %v", err)
	}
	if _, _, err := deps.Events.AssignEvent(ctx, gestion, sampleEvent.ID, support.ID); err != nil {
		log.Fatalf("failed to assign sample event: %v", err)
	}
	fmt.Println("Seeded sample event assigned to", support.Email)
}

func ensureSampleUser(ctx context.Context, deps *Dependencies, actor policy.Actor, dto user.CreateUserDTO) *usermodel.User {
	existing, err := userpg.NewUserRepository(deps.DB.Gorm).GetByEmail(dto.Email)
	if err != nil {
		log.Fatalf("failed to look up sample user: %v", err)
	}
	if existing != nil {
		return existing
	}

	created, err := deps.Users.CreateUser(ctx, actor, dto)
	if err != nil {
		log.Fatalf("failed to seed sample user %s: %v", dto.Email, err)
	}
	fmt.Printf("Seeded sample %s user: %s\n", dto.Department, created.Email)
	return created
}
