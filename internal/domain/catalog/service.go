package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Catalog struct {
	departments DepartmentRepository
	services    ServiceRepository
	rooms       RoomRepository
}

func New(departments DepartmentRepository, services ServiceRepository, rooms RoomRepository) *Catalog {
	return &Catalog{departments: departments, services: services, rooms: rooms}
}

func (c *Catalog) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	return c.departments.GetByID(ctx, id)
}

func (c *Catalog) ListDepartments(ctx context.Context, limit, offset int) ([]*Department, int, error) {
	return c.departments.List(ctx, limit, offset)
}

func (c *Catalog) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	return c.services.GetByID(ctx, id)
}

func (c *Catalog) ListServicesByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*Service, int, error) {
	return c.services.ListByDepartment(ctx, departmentID, limit, offset)
}

func (c *Catalog) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return c.rooms.GetByID(ctx, id)
}

// FirstActiveRoom returns the first active room of a department, or nil when
// the department has none.
func (c *Catalog) FirstActiveRoom(ctx context.Context, departmentID uuid.UUID) (*Room, error) {
	rm, err := c.rooms.FirstActiveByDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rm, nil
}

func (c *Catalog) ListRoomsByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*Room, int, error) {
	return c.rooms.ListByDepartment(ctx, departmentID, limit, offset)
}
