package models

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin" // 可跨用户操作,可永久删除
)

// User 对应 users 表
type User struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         string         `gorm:"type:varchar(36);unique;not null" json:"uuid"`
	Username     string         `gorm:"type:varchar(64);unique;not null" json:"username"`
	Email        string         `gorm:"type:varchar(128);unique;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         string         `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 判断用户是否是管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
