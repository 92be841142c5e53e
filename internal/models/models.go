package models

// ===========================================================================
// Models Index
// All models for GORM AutoMigrate
// ===========================================================================

// AllModels returns every persisted model.
func AllModels() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&Restaurant{},
		&RestaurantAccess{},
		&Agent{},
		&Integration{},
		&MenuItem{},
		&Order{},
		&Reservation{},
	}
}
