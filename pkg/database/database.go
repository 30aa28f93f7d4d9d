package database

import (
	"fmt"
	"log"

	"medprep_backend/internal/config"
	"medprep_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Subject{},
		&model.Question{},
		&model.Test{},
		&model.TestQuestion{},
		&model.Attempt{},
		&model.AttemptAnswer{},
		&model.Bookmark{},
		&model.PatientCase{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// seed default subjects if the table is empty
	var count int64
	db.Model(&model.Subject{}).Count(&count)
	if count == 0 {
		defaultSubjects := []model.Subject{
			{Code: "anatomy", Name: "Anatomy", Enabled: true},
			{Code: "physiology", Name: "Physiology", Enabled: true},
			{Code: "biochemistry", Name: "Biochemistry", Enabled: true},
			{Code: "pathology", Name: "Pathology", Enabled: true},
			{Code: "pharmacology", Name: "Pharmacology", Enabled: true},
			{Code: "microbiology", Name: "Microbiology", Enabled: true},
			{Code: "forensic_medicine", Name: "Forensic Medicine", Enabled: true},
			{Code: "community_medicine", Name: "Community Medicine", Enabled: true},
			{Code: "medicine", Name: "General Medicine", Enabled: true},
			{Code: "surgery", Name: "General Surgery", Enabled: true},
			{Code: "obgyn", Name: "Obstetrics & Gynaecology", Enabled: true},
			{Code: "pediatrics", Name: "Pediatrics", Enabled: true},
			{Code: "radiology", Name: "Radiology", Enabled: true},
			{Code: "dermatology", Name: "Dermatology", Enabled: true},
			{Code: "psychiatry", Name: "Psychiatry", Enabled: true},
			{Code: "ent", Name: "ENT", Enabled: true},
			{Code: "ophthalmology", Name: "Ophthalmology", Enabled: true},
			{Code: "orthopedics", Name: "Orthopedics", Enabled: true},
			{Code: "anesthesia", Name: "Anesthesia", Enabled: true},
		}
		for _, s := range defaultSubjects {
			db.Create(&s)
		}
	}

	return db, nil
}
