package domain

import "time"

// Customer represents a pet owner.
type Customer struct {
	ID             int64
	Name           string
	InvoiceAddress string
	InvoiceEmail   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Issues returns outstanding data problems that block invoicing.
// An invoice cannot be sent while the customer has issues.
func (c *Customer) Issues() []string {
	var issues []string

	if c.InvoiceEmail == "" {
		issues = append(issues, "no invoice email set")
	}

	return issues
}

// CanBeInvoiced reports whether the customer has no outstanding data issues.
func (c *Customer) CanBeInvoiced() bool {
	return len(c.Issues()) == 0
}

// Pet belongs to exactly one customer.
type Pet struct {
	ID         int64
	Name       string
	CustomerID int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
