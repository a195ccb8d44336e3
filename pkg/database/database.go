package database

import (
	"fmt"
	"log"

	"formflow_backend/internal/config"
	"formflow_backend/internal/model"

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
		&model.Group{},
		&model.GroupMember{},
		&model.ValidatorSubstitute{},
		&model.Form{},
		&model.Section{},
		&model.Question{},
		&model.Condition{},
		&model.FormValidator{},
		&model.Submission{},
		&model.Answer{},
		&model.ValidationEntry{},
		&model.TargetTemplate{},
		&model.GeneratedTarget{},
		&model.Ticket{},
		&model.TicketLink{},
		&model.Issue{},
		&model.NotificationLog{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}
