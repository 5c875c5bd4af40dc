package contract

import "time"

// Contract amounts are euro cents. Integer math keeps the
// 0 <= remaining <= total invariant exact.
type Contract struct {
	ID              int64     `gorm:"primaryKey"`
	ClientID        int64     `gorm:"column:client_id;not null;index"`
	SalesContactID  int64     `gorm:"column:sales_contact_id;not null;index"`
	TotalAmount     int64     `gorm:"column:total_amount;not null"`
	RemainingAmount int64     `gorm:"column:remaining_amount;not null"`
	IsSigned        bool      `gorm:"column:is_signed;not null;default:false"`
	CreationDate    time.Time `gorm:"column:creation_date;autoCreateTime"`
}

func (Contract) TableName() string {
	return "contracts"
}

// Sign marks the contract signed. Signing is one-directional: there is no
// transition back to unsigned.
func (c *Contract) Sign() {
	c.IsSigned = true
}

// FullyPaid reports whether nothing remains to be paid.
func (c *Contract) FullyPaid() bool {
	return c.RemainingAmount == 0
}
