package db

import (
	"fmt"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	constant "liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// GetInstance opens the process-wide database once and migrates it.
func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		var err error
		instance, err = Open(dialector)
		if err != nil {
			log.Fatal("Failed to open database:", err)
		}
	})
	return instance
}

// Open connects and migrates without touching the singleton.
func Open(dialector gorm.Dialector) (*DB, error) {
	var logger = constant.GetLoggerWith(constant.LoggerNameStore)

	gormCfg := &gorm.Config{}
	if constant.IsProduction() || constant.IsTestEnv() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

	if dialector.Name() == "sqlite" {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		// sqlite allows a single writer; one connection keeps gorm from tripping over SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)

		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable sqlite foreign key support: %w", err)
		}

		if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
			return nil, fmt.Errorf("failed to set sqlite journal mode: %w", err)
		}
	}

	err = conn.AutoMigrate(
		&models.Employee{},
		&models.Manager{},
		&models.Device{},
		&models.Presence{},
		&models.Location{},
		&models.DeviceStatus{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database migration completed")

	return &DB{Conn: conn}, nil
}

// UseDialector picks the dialector named by APP_DB_TYPE.
func UseDialector(dbType string, databaseURL string) (gorm.Dialector, error) {
	switch dbType {
	case "file":
		return UseSqliteDialector(), nil
	case "memory":
		return UseMemorySqliteDialector(), nil
	case "postgres":
		return UsePostgresDialector(databaseURL), nil
	default:
		return nil, fmt.Errorf("unknown db type: %s", dbType)
	}
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(constant.EnvKeyAppDbPath); !found {
		dbPath = "presence.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

func UsePostgresDialector(databaseURL string) gorm.Dialector {
	return postgres.Open(databaseURL)
}
