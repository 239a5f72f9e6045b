package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold. The booking rules key off these.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// User maps to the users table. Credentials live with the external identity
// provider; this table only mirrors the profile the scheduler needs.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Role      string    `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DoctorProfile maps to the doctor_profiles table. Every user with the
// doctor role has exactly one profile tying them to a department and,
// optionally, a consultation room.
type DoctorProfile struct {
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	DepartmentID   uuid.UUID  `db:"department_id" json:"department_id"`
	RoomID         *uuid.UUID `db:"room_id" json:"room_id,omitempty"`
	Specialization string     `db:"specialization" json:"specialization"`
	LicenseNumber  string     `db:"license_number" json:"license_number"`
	Biography      *string    `db:"biography" json:"biography,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Doctor is a doctor-role user joined with their profile.
type Doctor struct {
	User
	Profile DoctorProfile `json:"profile"`
}
