package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Record struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName,omitempty"`
	EmployeeEmail string          `json:"employeeEmail,omitempty"`
	CompanyID     string          `json:"companyId,omitempty"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	BaseSalary    decimal.Decimal `json:"baseSalary"`
	Overtime      decimal.Decimal `json:"overtime"`
	Deductions    decimal.Decimal `json:"deductions"`
	Bonuses       decimal.Decimal `json:"bonuses"`
	NetSalary     decimal.Decimal `json:"netSalary"`
	Status        string          `json:"status"`
	DocumentPath  string          `json:"documentPath,omitempty"`
	HasDocument   bool            `json:"hasDocument"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type RecordInput struct {
	EmployeeID string
	Month      int
	Year       int
	BaseSalary decimal.Decimal
	Overtime   decimal.Decimal
	Deductions decimal.Decimal
	Bonuses    decimal.Decimal
}

type ListFilter struct {
	CompanyID  string
	EmployeeID string
	Year       int
	Month      int
	Status     string
	Limit      int
	Offset     int
}
