package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/config"
	"github.com/bernardogazola/taskcheck/internal/database"
	"github.com/bernardogazola/taskcheck/internal/models"
)

func main() {
	seed := flag.Bool("seed", false, "insert a demo course, category, student and instructor after migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Course{},
		&models.Category{},
		&models.Student{},
		&models.Instructor{},
		&models.ActivityReport{},
		&models.Feedback{},
		&models.FeedbackVersion{},
		&models.ReportHistory{},
		&models.ValidationReversal{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	logger.Info().Str("env", cfg.AppEnv).Msg("schema migrated")

	if *seed {
		if err := seedDemo(db); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
		logger.Info().Msg("demo data seeded")
	}
}

// seedDemo inserts a minimal working scenario. Reruns are no-ops.
func seedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Course{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		course := models.Course{Name: "Software Engineering"}
		if err := tx.Create(&course).Error; err != nil {
			return err
		}

		categories := []models.Category{
			{Name: "Community Outreach", Description: "Volunteer and outreach work.", RequiredHours: 20, CourseID: course.ID},
			{Name: "Research Support", Description: "Lab assistance and study groups.", RequiredHours: 40, CourseID: course.ID},
		}
		if err := tx.Create(&categories).Error; err != nil {
			return err
		}

		student := models.Student{UserID: 1, Name: "Joana Prado", Enrollment: "2024-00001", CourseID: course.ID}
		if err := tx.Create(&student).Error; err != nil {
			return err
		}

		instructor := models.Instructor{UserID: 2, Name: "Prof. Ribeiro", Email: "ribeiro@example.com"}
		if err := tx.Create(&instructor).Error; err != nil {
			return err
		}
		if err := tx.Exec("INSERT INTO instructor_courses (instructor_id, course_id) VALUES (?, ?)", instructor.ID, course.ID).Error; err != nil {
			return err
		}

		report := models.ActivityReport{
			Name:            "Food bank weekend shift",
			Reflection:      "Sorted and packed donations across two full days.",
			RealizationDate: time.Now().AddDate(0, -1, 0),
			SubmissionDate:  time.Now(),
			Status:          models.ReportStatusAwaitingValidation,
			Certificate:     []byte("%PDF-1.4 demo certificate"),
			StudentID:       student.ID,
			CategoryID:      categories[0].ID,
		}
		return tx.Create(&report).Error
	})
}
