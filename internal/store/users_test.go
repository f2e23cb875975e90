package store

import (
	"context"
	"errors"
	"testing"

	"github.com/kizomanizo/fanya-backend/internal/model"
)

func TestUserStore_RegisterAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := mustRegister(t, st, "Alice@Example.com")
	if user.UUID == "" {
		t.Fatal("expected uuid to be assigned")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != model.RoleUser {
		t.Fatalf("expected role USER, got %q", user.Role)
	}
	if user.IsActive {
		t.Fatal("expected new account to be inactive")
	}
	if user.Password == "secret-password" || user.Password == "" {
		t.Fatal("expected password to be stored as digest")
	}
	if user.Salt == "" {
		t.Fatal("expected a per-user salt")
	}

	got, err := st.Users().Get(ctx, user.UUID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != user.Email {
		t.Fatalf("expected %q, got %q", user.Email, got.Email)
	}
}

func TestUserStore_DuplicateEmailConflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mustRegister(t, st, "alice@example.com")

	_, err := st.Users().Register(ctx, RegisterInput{
		FirstName: "Other",
		LastName:  "Alice",
		Email:     "ALICE@example.com",
		Password:  "another-password",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserStore_EmailReusableAfterSoftDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := mustRegister(t, st, "alice@example.com")
	if err := st.Users().SoftDelete(ctx, first.UUID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// 软删除释放唯一约束，同邮箱可以重新注册
	second := mustRegister(t, st, "alice@example.com")
	if second.UUID == first.UUID {
		t.Fatal("expected a fresh identity for the new registration")
	}

	if _, err := st.Users().Get(ctx, first.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted user to be invisible, got %v", err)
	}
}

func TestUserStore_SoftDeleteTwiceNotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := mustRegister(t, st, "alice@example.com")
	if err := st.Users().SoftDelete(ctx, user.UUID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := st.Users().SoftDelete(ctx, user.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUserStore_AuthenticateUniformError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mustRegister(t, st, "alice@example.com")

	// 未知邮箱和错误口令必须返回同一个错误
	_, errUnknown := st.Users().Authenticate(ctx, "nobody@example.com", "whatever")
	_, errWrongPass := st.Users().Authenticate(ctx, "alice@example.com", "wrong-password")
	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPass, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPass)
	}

	user, err := st.Users().Authenticate(ctx, "alice@example.com", "secret-password")
	if err != nil {
		t.Fatalf("valid login: %v", err)
	}
	if user.LastLogin == nil {
		t.Fatal("expected last_login to be recorded")
	}
}

func TestUserStore_UpdatePartial(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := mustRegister(t, st, "alice@example.com")

	newFirst := "Alicia"
	active := true
	updated, err := st.Users().Update(ctx, user.UUID, UpdateUserInput{
		FirstName: &newFirst,
		IsActive:  &active,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Alicia" {
		t.Fatalf("expected first name update, got %q", updated.FirstName)
	}
	if updated.LastName != "User" {
		t.Fatalf("expected untouched last name, got %q", updated.LastName)
	}
	if !updated.IsActive {
		t.Fatal("expected is_active true")
	}

	// 显式的 false 也要生效，而不是被当成“未提供”
	inactive := false
	updated, err = st.Users().Update(ctx, user.UUID, UpdateUserInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update false: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected is_active false after explicit update")
	}
	if updated.FirstName != "Alicia" {
		t.Fatalf("expected first name to survive, got %q", updated.FirstName)
	}
}

func TestUserStore_UpdateRejectsUnknownRole(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := mustRegister(t, st, "alice@example.com")

	bad := "SUPERUSER"
	if _, err := st.Users().Update(ctx, user.UUID, UpdateUserInput{Role: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	admin := "admin"
	updated, err := st.Users().Update(ctx, user.UUID, UpdateUserInput{Role: &admin})
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != model.RoleAdmin {
		t.Fatalf("expected role to be upper-cased to ADMIN, got %q", updated.Role)
	}
}
