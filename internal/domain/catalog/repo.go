package catalog

import (
	"context"

	"github.com/google/uuid"
)

type DepartmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context, limit, offset int) ([]*Department, int, error)
}

type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*Service, int, error)
}

type RoomRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	FirstActiveByDepartment(ctx context.Context, departmentID uuid.UUID) (*Room, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*Room, int, error)
}
