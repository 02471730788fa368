package workflow_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
)

func TestLogin_CredentialChecks(t *testing.T) {
	ctx := setupIntegration(t)
	_, employee := seedUsers(t, ctx)

	info, err := models.Login(ctx, employee.Username, "cashierpass1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if info.Token == "" || info.UserId != employee.ID {
		t.Fatalf("login info = %+v", info)
	}

	if _, err := models.Login(ctx, employee.Username, "wrong-password"); !utils.IsKind(err, utils.ErrorKindValidation) {
		t.Fatalf("wrong password: expected validation error, got %v", err)
	}
	if _, err := models.Login(ctx, "nobody", "whatever"); !utils.IsKind(err, utils.ErrorKindValidation) {
		t.Fatalf("unknown user: expected validation error, got %v", err)
	}
}

func TestLogin_RejectsCorruptStoredHash(t *testing.T) {
	ctx := setupIntegration(t)
	_, employee := seedUsers(t, ctx)

	// A row whose password column is not a bcrypt hash (bad import, manual
	// edit) must never be loggable-in, regardless of the supplied password.
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", employee.ID).
		Update("password", "plaintext-not-a-hash").Error; err != nil {
		t.Fatalf("corrupt stored hash: %v", err)
	}

	if _, err := models.Login(ctx, employee.Username, "cashierpass1"); err == nil {
		t.Fatal("login succeeded against a corrupt stored hash")
	} else if !utils.IsKind(err, utils.ErrorKindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := models.Login(ctx, employee.Username, "plaintext-not-a-hash"); err == nil {
		t.Fatal("login succeeded by matching the raw column value")
	}
}
