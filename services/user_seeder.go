package services

import (
	"context"
	"errors"

	"pickem-go/database"
	"pickem-go/logging"
	"pickem-go/models"
)

// DevUser is a login created for local development
type DevUser struct {
	Username string
	Password string
	IsAdmin  bool
}

// DefaultDevUsers are the players a development database starts with
var DefaultDevUsers = []DevUser{
	{Username: "mario", Password: "99coins", IsAdmin: true},
	{Username: "luigi", Password: "mansion5"},
}

// UserSeeder handles seeding the database with initial users
type UserSeeder struct {
	users UserRepository
}

// NewUserSeeder creates a new user seeder
func NewUserSeeder(users UserRepository) *UserSeeder {
	return &UserSeeder{users: users}
}

// SeedUsers creates any of the given users that do not exist yet
func (s *UserSeeder) SeedUsers(ctx context.Context, devUsers []DevUser) error {
	var existingCount, createdCount int

	for _, du := range devUsers {
		existing, err := s.users.GetUserByUsername(ctx, du.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			existingCount++
			continue
		}

		user := &models.User{Username: du.Username, IsAdmin: du.IsAdmin}
		if err := user.HashPassword(du.Password); err != nil {
			logging.Errorf("Failed to hash password for %s: %v", du.Username, err)
			continue
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				existingCount++
				continue
			}
			return err
		}

		logging.Infof("Created user %s with ID %d", user.Username, user.ID)
		createdCount++
	}

	if existingCount > 0 || createdCount > 0 {
		logging.Infof("Completed Seeding Users - %d existing, %d created", existingCount, createdCount)
	}
	return nil
}
