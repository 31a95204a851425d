package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	gorm.Model
	Username     string     `json:"username" gorm:"column:username;unique;not null"`
	Email        string     `json:"email" gorm:"column:email;unique;not null"`
	Password     string     `json:"-" gorm:"-"` // Temporary field for password handling
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null"`
	PhoneNumber  string     `json:"phoneNumber" gorm:"column:phone_number"`
	Role         UserRole   `json:"role" gorm:"column:role;not null;default:'user'"`
	IsBanned     bool       `json:"isBanned" gorm:"column:is_banned;not null;default:false"`
	BanReason    string     `json:"banReason,omitempty" gorm:"column:ban_reason"`
	BannedAt     *time.Time `json:"bannedAt,omitempty" gorm:"column:banned_at"`
	BannedByID   *uint      `json:"bannedBy,omitempty" gorm:"column:banned_by_id"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
