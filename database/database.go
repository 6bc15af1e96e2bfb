package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"creditdesk/config"
	"creditdesk/models"
	"creditdesk/utils"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

// NewDatabase создает подключение по настройкам, выполняет миграции и заполняет справочник прав
func NewDatabase(cfg *config.Config) (*Database, error) {
	var (
		db  *Database
		err error
	)

	switch cfg.DB.Driver {
	case "sqlite":
		db, err = openSQLite(cfg.DB.SQLitePath, logger.Warn)
	default:
		if err := runMigrations(cfg); err != nil {
			return nil, fmt.Errorf("ошибка выполнения SQL миграций: %w", err)
		}
		db, err = openPostgres(cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			return nil, err
		}
	}
	if err := SeedPermissions(db.DB); err != nil {
		return nil, err
	}

	return db, nil
}

// NewSQLite открывает sqlite базу (например ":memory:") со схемой и правами, используется в тестах
func NewSQLite(path string) (*Database, error) {
	db, err := openSQLite(path, logger.Silent)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(); err != nil {
		return nil, err
	}
	if err := SeedPermissions(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			utils.Logger(),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func postgresDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)
}

func openPostgres(cfg *config.Config) (*Database, error) {
	db, err := gorm.Open(postgres.Open(postgresDSN(cfg)), gormConfig(logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Настраиваем пул соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Database{DB: db}, nil
}

func openSQLite(path string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), gormConfig(level))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %w", err)
	}
	// sqlite допускает одного писателя; одно соединение сериализует транзакции
	// и сохраняет in-memory базу между запросами.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return &Database{DB: db}, nil
}

// runMigrations выполняет SQL миграции, если каталог миграций существует
func runMigrations(cfg *config.Config) error {
	if cfg.DB.MigrationsPath == "" {
		return nil
	}
	if _, err := os.Stat(cfg.DB.MigrationsPath); errors.Is(err, os.ErrNotExist) {
		utils.LogInfo("каталог миграций %s не найден, SQL миграции пропущены", cfg.DB.MigrationsPath)
		return nil
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	m, err := migrate.New("file://"+cfg.DB.MigrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("ошибка создания миграции: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}
	return nil
}

// AutoMigrate выполняет автоматическую миграцию моделей
func (d *Database) AutoMigrate() error {
	err := d.DB.AutoMigrate(
		&models.Client{},
		&models.ProductType{},
		&models.Product{},
		&models.InterestRate{},
		&models.Credit{},
		&models.ClientCreditProduct{},
		&models.Payment{},
		&models.Permission{},
		&models.Group{},
		&models.User{},
	)
	if err != nil {
		return fmt.Errorf("ошибка автоматической миграции: %w", err)
	}
	return nil
}

// Ping проверяет доступность базы данных
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
