//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/arlo/crewdeck/internal/auth"
	"github.com/arlo/crewdeck/internal/database"
	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/invites"
	"github.com/arlo/crewdeck/internal/orgs"
	"github.com/arlo/crewdeck/internal/projects"
	"github.com/arlo/crewdeck/internal/users"
	"github.com/arlo/crewdeck/pkg/config"
	"github.com/arlo/crewdeck/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create admin user with a demo org
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "Admin123!"
	}

	ctx := context.Background()
	resp, err := authService.Register(ctx, auth.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Admin",
		OrgName:   "Demo Organization",
	})
	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	orgService := orgs.NewService(db, logger)
	userService := users.NewService(db)
	inviteService := invites.NewService(db, orgService, userService, nil, logger)
	projectService := projects.NewService(db, orgService)

	orgList, err := orgService.ForUser(ctx, resp.User.ID)
	if err != nil || len(orgList) == 0 {
		log.Fatalf("failed to load demo organization: %v", err)
	}
	org := orgList[0]

	project, err := projectService.Create(ctx, resp.User.ID, org.ID, projects.CreateInput{
		Name:        "Demo Project",
		Description: "A project to poke around in",
	})
	if err != nil {
		log.Fatalf("failed to create demo project: %v", err)
	}

	// Leave a pending invite so the accept flow can be exercised
	result, err := inviteService.Invite(ctx, resp.User.ID, org.ID, "teammate@example.com", models.RoleOrgUser)
	if err != nil {
		log.Fatalf("failed to create demo invite: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Organization: %s (%s)\n", org.Name, org.ID)
	fmt.Printf("Project: %s (%s)\n", project.Name, project.ID)
	fmt.Printf("Pending invite: %s (%s)\n", result.Invite.Email, result.Invite.State)
	fmt.Printf("Token: %s\n", resp.Token)
}
