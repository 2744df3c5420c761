package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/db"
	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/store"
)

var employees = []models.Employee{
	{ID: "EMP001", FullName: "Sarah Johnson", Department: "Sales", IsActive: true},
	{ID: "EMP-001", FullName: "John Doe", Department: "Field Service", IsActive: true},
}

var manager = models.Manager{
	FullName: "Alex Morgan",
	Email:    "manager@example.com",
	Company:  "Field Presence Demo",
	IsActive: true,
}

func main() {
	_ = godotenv.Load()

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	defer common.SyncLogger()

	dialector, err := db.UseDialector(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	s := store.New(*db.GetInstance(dialector))
	tokens := auth.NewService(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.JWTRefreshExpiresIn)
	ctx := context.Background()

	for i := range employees {
		employee := employees[i]
		existing, err := s.GetEmployeeActiveByID(ctx, employee.ID)
		if err != nil {
			log.Fatal(err)
		}
		if existing != nil {
			fmt.Printf("employee %s already exists\n", employee.ID)
			continue
		}
		if err := s.CreateEmployee(ctx, &employee); err != nil {
			log.Fatalf("failed to create employee %s: %v", employee.ID, err)
		}
		fmt.Printf("created employee %s (%s)\n", employee.ID, employee.FullName)
	}

	if err := s.Db.Conn.WithContext(ctx).Where(models.Manager{Email: manager.Email}).
		Attrs(models.Manager{ID: uuid.NewString()}).
		FirstOrCreate(&manager).Error; err != nil {
		log.Fatalf("failed to create manager: %v", err)
	}
	fmt.Printf("manager %s (%s)\n", manager.ID, manager.Email)

	managerTokens, err := tokens.GenerateTokenPair(manager.ID, auth.RoleManager, "")
	if err != nil {
		log.Fatal(err)
	}

	device, err := s.RegisterDevice(ctx, "EMP001", "ios", "")
	if err != nil {
		log.Fatalf("failed to register device: %v", err)
	}
	employeeTokens, err := tokens.GenerateTokenPair("EMP001", auth.RoleEmployee, device.ID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nmanager access token:\n%s\n", managerTokens.AccessToken)
	fmt.Printf("\nEMP001 device %s access token:\n%s\n", device.ID, employeeTokens.AccessToken)
}
