package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// GetDoctor loads a doctor-role user and their profile. It fails when the
// user does not exist, is not a doctor, or has been deactivated.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != RoleDoctor {
		return nil, fmt.Errorf("user %s is not a doctor", id)
	}
	if !u.Active {
		return nil, fmt.Errorf("doctor %s is not active", id)
	}
	profile, err := s.users.GetDoctorProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("doctor %s has no profile: %w", id, err)
	}
	return &Doctor{User: *u, Profile: *profile}, nil
}

func (s *Service) ListDoctorsByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	return s.users.ListDoctorsByDepartment(ctx, departmentID, limit, offset)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.users.ListDoctors(ctx, limit, offset)
}
