package client

import "time"

type Client struct {
	ID              int64     `gorm:"primaryKey"`
	FullName        string    `gorm:"column:full_name;not null"`
	Email           string    `gorm:"column:email;uniqueIndex;not null"`
	Phone           string    `gorm:"column:phone;not null"`
	CompanyName     string    `gorm:"column:company_name;not null"`
	SalesContactID  int64     `gorm:"column:sales_contact_id;not null;index"`
	CreatedDate     time.Time `gorm:"column:created_date;autoCreateTime"`
	LastContactDate time.Time `gorm:"column:last_contact_date"`
}

func (Client) TableName() string {
	return "clients"
}

// Touch records a fresh contact with the client. Every successful update of
// the record counts as a contact.
func (c *Client) Touch(now time.Time) {
	c.LastContactDate = now
}
