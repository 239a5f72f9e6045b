package identity

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockUserRepo struct {
	users    map[uuid.UUID]*User
	profiles map[uuid.UUID]*DoctorProfile
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:    make(map[uuid.UUID]*User),
		profiles: make(map[uuid.UUID]*DoctorProfile),
	}
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetDoctorProfile(_ context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockUserRepo) ListDoctorsByDepartment(_ context.Context, departmentID uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for id, u := range m.users {
		p, ok := m.profiles[id]
		if !ok || u.Role != RoleDoctor || !u.Active {
			continue
		}
		if p.DepartmentID == departmentID {
			result = append(result, &Doctor{User: *u, Profile: *p})
		}
	}
	return result, len(result), nil
}

func (m *mockUserRepo) ListDoctors(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for id, u := range m.users {
		p, ok := m.profiles[id]
		if !ok || u.Role != RoleDoctor || !u.Active {
			continue
		}
		result = append(result, &Doctor{User: *u, Profile: *p})
	}
	return result, len(result), nil
}

func (m *mockUserRepo) addDoctor(departmentID uuid.UUID, active bool) uuid.UUID {
	id := uuid.New()
	m.users[id] = &User{ID: id, Email: "doc@example.com", FullName: "Dr Test", Role: RoleDoctor, Active: active}
	m.profiles[id] = &DoctorProfile{UserID: id, DepartmentID: departmentID, Specialization: "cardiology", LicenseNumber: "LIC-1"}
	return id
}

// -- Tests --

func TestGetDoctor_Success(t *testing.T) {
	repo := newMockUserRepo()
	deptID := uuid.New()
	docID := repo.addDoctor(deptID, true)

	svc := NewService(repo)
	doc, err := svc.GetDoctor(context.Background(), docID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != docID {
		t.Errorf("expected id %s, got %s", docID, doc.ID)
	}
	if doc.Profile.DepartmentID != deptID {
		t.Errorf("expected department %s, got %s", deptID, doc.Profile.DepartmentID)
	}
}

func TestGetDoctor_NotADoctor(t *testing.T) {
	repo := newMockUserRepo()
	id := uuid.New()
	repo.users[id] = &User{ID: id, Role: RolePatient, Active: true}

	svc := NewService(repo)
	if _, err := svc.GetDoctor(context.Background(), id); err == nil {
		t.Fatal("expected error for non-doctor user")
	}
}

func TestGetDoctor_Inactive(t *testing.T) {
	repo := newMockUserRepo()
	docID := repo.addDoctor(uuid.New(), false)

	svc := NewService(repo)
	if _, err := svc.GetDoctor(context.Background(), docID); err == nil {
		t.Fatal("expected error for inactive doctor")
	}
}

func TestGetDoctor_MissingProfile(t *testing.T) {
	repo := newMockUserRepo()
	id := uuid.New()
	repo.users[id] = &User{ID: id, Role: RoleDoctor, Active: true}

	svc := NewService(repo)
	if _, err := svc.GetDoctor(context.Background(), id); err == nil {
		t.Fatal("expected error for doctor without profile")
	}
}

func TestListDoctorsByDepartment_FiltersDepartment(t *testing.T) {
	repo := newMockUserRepo()
	deptA := uuid.New()
	deptB := uuid.New()
	repo.addDoctor(deptA, true)
	repo.addDoctor(deptA, true)
	repo.addDoctor(deptB, true)

	svc := NewService(repo)
	items, total, err := svc.ListDoctorsByDepartment(context.Background(), deptA, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 doctors in department A, got total=%d len=%d", total, len(items))
	}
}
