package catalog

import (
	"errors"
	"time"
)

// Catalog models are static reference data: created by admin import,
// read by the call-context resolver, never mutated by the conversation
// engine itself.

// Partner is an institution (school) that is a calling target.
type Partner struct {
	ID          int64  `json:"partner_id" db:"partner_id"`
	Name        string `json:"partner_name" db:"partner_name"`
	ContactType string `json:"contact_type,omitempty" db:"contact_type"`
	Phone       string `json:"contact_phone,omitempty" db:"contact_phone"`
	Email       string `json:"contact_email,omitempty" db:"contact_email"`
	Active      bool   `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Program is a course offering.
type Program struct {
	ID          int64  `json:"program_id" db:"program_id"`
	Name        string `json:"program_name" db:"program_name"`
	Description string `json:"description,omitempty" db:"description"`
	BaseFees    int64  `json:"base_fees" db:"base_fees"`
	Category    string `json:"category,omitempty" db:"category"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProgramEvent is a scheduled instance of a program with its own
// fee, discount and seat count. Amounts are whole currency units.
type ProgramEvent struct {
	ID        int64     `json:"event_id" db:"event_id"`
	ProgramID int64     `json:"program_id" db:"program_id"`
	StartsAt  time.Time `json:"event_datetime" db:"event_datetime"`
	Fees      int64     `json:"fees" db:"fees"`
	Discount  int64     `json:"discount" db:"discount"`
	Seats     int       `json:"seats" db:"seats"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FinalPrice is fees minus discount, clamped at zero. Source data has
// no constraint that discount <= fees, so the floor keeps a bad row
// from quoting a negative price on a live call.
func (e ProgramEvent) FinalPrice() int64 {
	p := e.Fees - e.Discount
	if p < 0 {
		return 0
	}
	return p
}

var (
	ErrNotFound        = errors.New("catalog: not found")
	ErrInvalidArgument = errors.New("catalog: invalid argument")
)

func (p Partner) Validate() error {
	if p.Name == "" {
		return ErrInvalidArgument
	}
	return nil
}

func (p Program) Validate() error {
	if p.Name == "" || p.BaseFees < 0 {
		return ErrInvalidArgument
	}
	return nil
}

func (e ProgramEvent) Validate() error {
	if e.ProgramID <= 0 || e.Fees < 0 || e.Discount < 0 || e.Seats < 0 {
		return ErrInvalidArgument
	}
	return nil
}
