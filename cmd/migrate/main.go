package main

import (
	"log"
	"os"

	"docuchat-be/internal/model"
	"docuchat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions & Enums (things AutoMigrate doesn't do)
	color.Cyan("Step 1: Setting up Extensions and Enums...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN CREATE TYPE user_role AS ENUM ('user', 'admin'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_status') THEN CREATE TYPE user_status AS ENUM ('pending', 'active', 'blocked'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'document_status') THEN CREATE TYPE document_status AS ENUM ('processing', 'completed', 'error'); END IF; END $$;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	color.Cyan("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.EmailVerificationToken{},
		&model.UserRefreshToken{},
		&model.Document{},
		&model.ChatSession{},
		&model.ChatMessage{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// 5. Post-Migration: supporting indexes
	color.Cyan("Step 3: Creating supporting indexes...")

	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_documents_user_status ON documents (user_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session_created ON chat_messages (chat_session_id, created_at);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("Success: Database migration completed successfully via GORM.")
}
