// cmd/depotctl/main.go
//
// Administrative bootstrap tool. Run it against the same environment as the
// server:
//
//	depotctl init-db
//	depotctl create-admin [-username admin] [-email admin@example.com] [-password ...]
//	depotctl seed-demo [-owner admin]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/database"
	"github.com/depot-app/depot-backend/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	switch os.Args[1] {
	case "init-db":
		err = runInitDB(db)
	case "create-admin":
		err = runCreateAdmin(db, os.Args[2:])
	case "seed-demo":
		err = runSeedDemo(db, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: depotctl <init-db|create-admin|seed-demo> [flags]")
}

func runInitDB(db *gorm.DB) error {
	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.SeedRoles(db); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	fmt.Println("Database initialized")
	fmt.Println("Roles created: admin, user, moderator")
	return nil
}

func runCreateAdmin(db *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	username := fs.String("username", "admin", "admin username")
	email := fs.String("email", "admin@example.com", "admin email")
	password := fs.String("password", "admin123", "admin password")
	fs.Parse(args)

	user, err := database.CreateAdminUser(db, *username, *email, *password)
	if err != nil {
		return err
	}

	fmt.Println("Administrator created")
	fmt.Printf("  Username: %s\n", user.Username)
	fmt.Printf("  Email:    %s\n", user.Email)
	fmt.Println("  Change the default password before going to production")
	return nil
}

func runSeedDemo(db *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)
	ownerName := fs.String("owner", "admin", "username that will own the demo products")
	fs.Parse(args)

	var owner models.User
	if err := db.Where("username = ?", *ownerName).First(&owner).Error; err != nil {
		return fmt.Errorf("owner %q not found, create a user first: %w", *ownerName, err)
	}

	demo := []models.Product{
		{Name: "Laptop Dell XPS 15", Description: "High-performance laptop with a 4K display", Price: 1499.99, Stock: 10, Category: "Electronics", ImageURL: "https://images.unsplash.com/photo-1593642632823-8f785ba67e45?w=400"},
		{Name: "iPhone 15 Pro", Description: "Latest-generation Apple smartphone", Price: 1199.00, Stock: 25, Category: "Electronics", ImageURL: "https://images.unsplash.com/photo-1510557880182-3d4d3cba35a5?w=400"},
		{Name: "Ergonomic office chair", Description: "Comfortable chair for long work days", Price: 299.99, Stock: 15, Category: "Furniture", ImageURL: "https://images.unsplash.com/photo-1580480055273-228ff5388ef8?w=400"},
		{Name: "Book: Python Programming", Description: "A complete guide to Python programming", Price: 39.99, Stock: 50, Category: "Books", ImageURL: "https://images.unsplash.com/photo-1515879218367-8466d910aaa4?w=400"},
		{Name: "Sony WH-1000XM5 headphones", Description: "Wireless noise-cancelling headphones", Price: 349.99, Stock: 20, Category: "Electronics", ImageURL: "https://images.unsplash.com/photo-1545127398-14699f92334b?w=400"},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range demo {
			demo[i].OwnerID = owner.ID
			if err := tx.Create(&demo[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo products: %w", err)
	}

	fmt.Printf("%d demo products created for %s\n", len(demo), owner.Username)
	return nil
}
