package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"         json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:64"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null;size:255"    json:"email"`
	PasswordHash string    `gorm:"not null"                         json:"-"`
	IsActive     bool      `gorm:"not null;default:true"            json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"    json:"-"`
}

type Post struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                         json:"id"`
	Title     string    `gorm:"not null;size:255"                                json:"title"`
	Content   string    `gorm:"type:text;not null"                               json:"content"`
	AuthorID  uint      `gorm:"index;not null"                                   json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"                    json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"                    json:"updated_at"`
}

// PublicUser is the projection of User that is safe to return to clients.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}
