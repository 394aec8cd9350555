package users

import (
	"database/sql"
	"errors"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Subscription plans, lowest to highest tier.
const (
	PlanFree  = "free"
	PlanBasic = "basic"
	PlanPro   = "pro"
	PlanUltra = "ultra"
)

// StatusActive is the only subscription status that keeps a paid plan in
// force.
const StatusActive = "active"

type User struct {
	ID                  uint   `gorm:"primaryKey"`
	Email               string `gorm:"uniqueIndex"`
	EncryptedPassword   string
	SubscriptionPlan    string `gorm:"not null;default:free"`
	SubscriptionStatus  string `gorm:"not null;default:''"`
	SubscriptionEndDate sql.NullTime
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// ErrUserExists is returned when attempting to create a user that already exists.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = gorm.ErrRecordNotFound

var paidPlans = map[string]bool{
	PlanBasic: true,
	PlanPro:   true,
	PlanUltra: true,
}

// EffectivePlan returns the subscription tier actually in force: the stored
// plan only when it is a known paid plan, the subscription is active, and any
// end date has not passed. Everything else collapses to free.
func (u *User) EffectivePlan(now time.Time) string {
	if !paidPlans[u.SubscriptionPlan] {
		return PlanFree
	}
	if u.SubscriptionStatus != StatusActive {
		return PlanFree
	}
	if u.SubscriptionEndDate.Valid && u.SubscriptionEndDate.Time.Before(now) {
		return PlanFree
	}
	return u.SubscriptionPlan
}

// FindByEmail retrieves a user by email.
func FindByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func FindByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user with the supplied credentials and plan. It
// returns ErrUserExists if the email is already taken.
func CreateUser(dbConn *gorm.DB, email, password, plan string) error {
	if _, err := FindByEmail(dbConn, email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if email == "" {
		return errors.New("email cannot be empty")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if plan == "" {
		plan = PlanFree
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	newUser := User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		SubscriptionPlan:  plan,
	}
	if paidPlans[plan] {
		newUser.SubscriptionStatus = StatusActive
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Create(&newUser).Error
	})
}

// ChangePassword updates a user's password given their email.
func ChangePassword(dbConn *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	user, err := FindByEmail(dbConn, email)
	if err != nil {
		return err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Model(user).Update("encrypted_password", string(hashedPassword)).Error
	})
}
