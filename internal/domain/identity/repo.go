package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	ListDoctorsByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*Doctor, int, error)
	ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
}
