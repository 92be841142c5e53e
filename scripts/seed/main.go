//go:build ignore

// ===========================================================================
// Seeds a demo restaurant for development/testing
// Run: go run scripts/seed/main.go
// ===========================================================================

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"tableline/internal/auth"
	"tableline/internal/config"
	"tableline/internal/database"
	"tableline/internal/models"
	"tableline/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const ownerSubject = "seed|owner"

func main() {
	fmt.Println("🌱 Seeding data...")

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	zapLog, err := logger.NewLogger("seed", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Cannot create logger: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database, zapLog)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Cannot migrate: %v", err)
	}

	fmt.Println("✅ Connected to database")

	// =========================================================================
	// 1. Owner
	// =========================================================================
	owner := &models.User{
		Subject: ownerSubject,
		Email:   "owner@demo-bistro.com",
		Name:    "Demo Owner",
	}

	var existingOwner models.User
	if err := db.Where("subject = ?", owner.Subject).First(&existingOwner).Error; err == nil {
		fmt.Println("⚠️  Owner already exists, reusing it")
		owner = &existingOwner
	} else {
		if err := db.Create(owner).Error; err != nil {
			log.Fatalf("Cannot create owner: %v", err)
		}
		fmt.Printf("✅ Created owner: %s (ID: %s)\n", owner.Email, owner.ID)
	}

	// =========================================================================
	// 2. Organization and restaurant
	// =========================================================================
	org := &models.Organization{Name: "Demo Group", OwnerID: owner.ID}

	var existingOrg models.Organization
	if err := db.Where("owner_id = ? AND name = ?", owner.ID, org.Name).First(&existingOrg).Error; err == nil {
		org = &existingOrg
	} else if err := db.Create(org).Error; err != nil {
		log.Fatalf("Cannot create organization: %v", err)
	}

	restaurant := &models.Restaurant{
		Name:               "Demo Bistro",
		Phone:              "+15555550100",
		Address:            "12 Market Street",
		Timezone:           models.DefaultTimezone,
		OrganizationID:     uuidPtr(org.ID),
		OwnerID:            uuidPtr(owner.ID),
		NotificationEmails: models.StringList{"kitchen@demo-bistro.com"},
		OperatingHours:     weekHours(),
	}

	var existingRestaurant models.Restaurant
	if err := db.Where("owner_id = ? AND name = ?", owner.ID, restaurant.Name).First(&existingRestaurant).Error; err == nil {
		fmt.Println("⚠️  Restaurant 'Demo Bistro' already exists, reusing it")
		restaurant = &existingRestaurant
	} else {
		if err := db.Create(restaurant).Error; err != nil {
			log.Fatalf("Cannot create restaurant: %v", err)
		}
		fmt.Printf("✅ Created restaurant: %s (ID: %s)\n", restaurant.Name, restaurant.ID)
	}

	access := &models.RestaurantAccess{UserID: owner.ID, RestaurantID: restaurant.ID, Role: models.RoleOwner}
	var existingAccess models.RestaurantAccess
	if err := db.Where("user_id = ? AND restaurant_id = ?", owner.ID, restaurant.ID).First(&existingAccess).Error; err != nil {
		if err := db.Create(access).Error; err != nil {
			zapLog.Warn("Cannot grant access", zap.Error(err))
		}
	}

	// =========================================================================
	// 3. Menu
	// =========================================================================
	menu := []*models.MenuItem{
		{Category: "Starters", Name: "Tomato Soup", Price: 6.5, SortOrder: 1},
		{Category: "Starters", Name: "Garlic Bread", Price: 4, SortOrder: 2},
		{Category: "Mains", Name: "Margherita Pizza", Price: 12, SortOrder: 1},
		{Category: "Mains", Name: "Mushroom Risotto", Price: 14.5, SortOrder: 2},
		{Category: "Desserts", Name: "Tiramisu", Price: 7, SortOrder: 1},
	}

	for _, item := range menu {
		item.RestaurantID = restaurant.ID
		item.Available = true

		var existing models.MenuItem
		if err := db.Where("restaurant_id = ? AND name = ?", restaurant.ID, item.Name).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(item).Error; err != nil {
			zapLog.Warn("Cannot create menu item", zap.String("name", item.Name), zap.Error(err))
		} else {
			fmt.Printf("✅ Created menu item: %s\n", item.Name)
		}
	}

	// =========================================================================
	// 4. Dashboard token
	// =========================================================================
	token, err := auth.NewVerifier(cfg.JWT).Sign(owner.Subject, owner.Email, owner.Name, 24*time.Hour)
	if err != nil {
		log.Fatalf("Cannot sign token: %v", err)
	}

	// =========================================================================
	// Summary
	// =========================================================================
	fmt.Println("")
	fmt.Println("========================================")
	fmt.Println("🎉 Seed complete!")
	fmt.Println("========================================")
	fmt.Println("")
	fmt.Printf("🔗 Restaurant ID: %s\n", restaurant.ID)
	fmt.Println("")
	fmt.Println("🔑 Dashboard token (24h):")
	fmt.Printf("   %s\n", token)
	fmt.Println("")
	fmt.Println("💡 Test a reservation tool call:")
	fmt.Printf(`   curl -X POST "http://localhost:%d/api/v1/webhooks/voice/reservations/create?restaurantId=%s" \`, cfg.App.Port, restaurant.ID)
	fmt.Println("")
	fmt.Println(`     -H "Content-Type: application/json" \`)
	fmt.Printf(`     -d '{"customer_name":"Ada","customer_phone":"+15555550123","date":"%s","time":"19:00","party_size":2}'`,
		time.Now().AddDate(0, 0, 1).Format(models.DateLayout))
	fmt.Println("")

	os.Exit(0)
}

// weekHours opens 11:00-22:00 every day except Monday.
func weekHours() models.OperatingHours {
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	hours := make(models.OperatingHours, 0, len(days))
	for _, d := range days {
		if d == "monday" {
			hours = append(hours, models.DayHours{Day: d, Closed: true})
			continue
		}
		hours = append(hours, models.DayHours{Day: d, Open: "11:00", Close: "22:00"})
	}
	return hours
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
