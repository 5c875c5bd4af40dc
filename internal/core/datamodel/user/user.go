package user

import "time"

// Department is the organisational unit a user belongs to. It drives every
// authorization decision in the policy table.
type Department string

const (
	DepartmentCommercial Department = "commercial"
	DepartmentSupport    Department = "support"
	DepartmentGestion    Department = "gestion"
)

// Valid reports whether the department is one of the three known values.
func (d Department) Valid() bool {
	switch d {
	case DepartmentCommercial, DepartmentSupport, DepartmentGestion:
		return true
	}
	return false
}

func (d Department) String() string {
	return string(d)
}

type User struct {
	ID             int64      `gorm:"primaryKey"`
	EmployeeNumber string     `gorm:"column:employee_number;uniqueIndex;not null"`
	Name           string     `gorm:"column:name;not null"`
	Email          string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash   string     `gorm:"column:password_hash;not null" json:"-"`
	Department     Department `gorm:"column:department;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsCommercial() bool {
	return u.Department == DepartmentCommercial
}

func (u *User) IsSupport() bool {
	return u.Department == DepartmentSupport
}

func (u *User) IsGestion() bool {
	return u.Department == DepartmentGestion
}
