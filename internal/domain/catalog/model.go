package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Department maps to the departments table. The health examination fee is
// the base price every appointment in the department starts from.
type Department struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Description          *string   `db:"description" json:"description,omitempty"`
	HealthExaminationFee float64   `db:"health_examination_fee" json:"health_examination_fee"`
	Active               bool      `db:"active" json:"active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Service maps to the services table. A service belongs to one department
// and its price is added on top of the department's examination fee.
type Service struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Price        float64   `db:"price" json:"price"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Room maps to the rooms table.
type Room struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Floor        *string   `db:"floor" json:"floor,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
