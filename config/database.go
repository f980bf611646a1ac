package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pizza-service/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens the sqlite database at path and migrates all models.
func OpenDB(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	return open(sqlite.Open(dsn))
}

// Connect opens the database selected by DB_DRIVER.
func Connect(cfg *Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case DriverSQLite:
		return OpenDB(cfg.DBPath)
	case DriverPostgres:
		return open(postgres.Open(cfg.DatabaseURL))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		// unique violations surface as gorm.ErrDuplicatedKey on every driver
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Session{},
		&models.Franchise{},
		&models.Store{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// SeedAdmin creates the bootstrap admin account when no user with that email
// exists yet. It is the only way to obtain the admin role.
func SeedAdmin(db *gorm.DB, cfg *Config, log *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Roles:        []models.Role{models.AdminRole()},
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("seeded admin account", zap.String("email", admin.Email), zap.Uint("user_id", admin.ID))
	return nil
}
