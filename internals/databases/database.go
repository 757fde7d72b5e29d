package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"proctorx_backend/internals/configs"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("[INFO] connecting to PostgreSQL (Supabase)...")

	// PgBouncer (transaction pooling) needs the simple protocol.
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  configs.PostgresDSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("[ERROR] database connection failed: %v", err)
	}
	DB = db
	log.Println("[INFO] database connected")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("[WARN] pool tune: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(configs.GetEnvInt("DB_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(configs.GetEnvInt("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(); err != nil {
			log.Printf("[WARN] warm-up ping: %v", err)
			return
		}
		DB.Exec("SELECT 1 FROM exams LIMIT 1")
	}()
}

// AutoMigrate is opt-in (DB_AUTO_MIGRATE=true); production schemas are managed by migrations.
func AutoMigrate(models ...interface{}) {
	if !configs.GetEnvBool("DB_AUTO_MIGRATE", false) {
		return
	}
	if err := DB.AutoMigrate(models...); err != nil {
		log.Fatalf("[ERROR] auto migrate: %v", err)
	}
	log.Printf("[INFO] auto migrated %d tables", len(models))
}

func Ping() error {
	if DB == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
