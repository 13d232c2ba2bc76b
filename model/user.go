package model

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User struct
type User struct {
	Model
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
	Role     Role   `gorm:"not null;default:user" json:"role"`

	OtpEnabled bool   `gorm:"default:false" json:"otp"`
	OtpSecret  string `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
