package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               int        `gorm:"primary_key" json:"id"`
	Username         string     `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Email            string     `gorm:"size:255;not null;unique" json:"email" binding:"required"`
	Password         string     `gorm:"size:255;not null" json:"-"`
	Role             UserRole   `gorm:"type:enum('Owner','Employee');not null;default:Employee" json:"role"`
	FullName         string     `gorm:"size:100" json:"full_name"`
	PhoneNumber      string     `gorm:"size:30" json:"phone_number"`
	FcmToken         string     `gorm:"size:500" json:"-"`
	ResetToken       *string    `gorm:"size:500" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	IsActive         *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type NewUser struct {
	Username    string `json:"username" binding:"required" validate:"required"`
	Email       string `json:"email" binding:"required,email" validate:"required,email"`
	Password    string `json:"password" binding:"required,min=6" validate:"required,min=6"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
}

type LoginInfo struct {
	Token       string   `json:"token"`
	UserId      int      `json:"user_id"`
	Username    string   `json:"username"`
	Role        UserRole `json:"role"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	PhoneNumber string   `json:"phone_number"`
}

/*
caches:
	User:$username
*/

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

func (result *User) PrepareGive() {
	result.Password = ""
	result.FcmToken = ""
	result.ResetToken = nil
	result.ResetTokenExpiry = nil
}

func (input *NewUser) validate(ctx context.Context) error {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ValidationError(err.Error())
	}

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.ConflictError("username already exists")
	}
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.ConflictError("email already exists")
	}
	if !utils.IsValidEmail(input.Email) {
		return utils.ValidationError("email is not valid")
	}
	if strings.TrimSpace(input.PhoneNumber) != "" {
		if err := utils.ValidatePhoneNumber(input.PhoneNumber); err != nil {
			return utils.ValidationError("phone number is not valid")
		}
	}
	return nil
}

// CreateOwner bootstraps the very first account. It refuses to run once any
// user exists so the endpoint cannot be abused after setup.
func CreateOwner(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ConflictError("an owner account already exists")
	}

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	fullName := input.FullName
	if fullName == "" {
		fullName = "Store Owner"
	}

	owner := User{
		Username:    input.Username,
		Email:       input.Email,
		Password:    string(hashed),
		Role:        UserRoleOwner,
		FullName:    fullName,
		PhoneNumber: input.PhoneNumber,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

// CreateEmployee is owner-only at the route level; it also refuses any role
// other than Employee so the endpoint cannot mint extra owners.
func CreateEmployee(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	if input.Role != "" && input.Role != string(UserRoleEmployee) {
		return nil, utils.ValidationError("only employee accounts can be registered")
	}

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	employee := User{
		Username:    input.Username,
		Email:       input.Email,
		Password:    string(hashed),
		Role:        UserRoleEmployee,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	user := User{}

	// Credential checks always hit the DB; the cache never stores the hash.
	err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
	if err != nil {
		return nil, utils.ValidationError("invalid username or password")
	}

	// check login credentials; any compare failure (including a malformed
	// stored hash) must reject the login
	err = utils.ComparePassword(user.Password, password)
	if err != nil {
		return nil, utils.ValidationError("invalid username or password")
	}

	if user.IsActive == nil || !*user.IsActive {
		return nil, utils.ValidationError("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}

	// cache a sanitized copy for auth-adjacent lookups (directory, exports)
	cached := user
	cached.PrepareGive()
	_ = config.SetRedisObject("User:"+user.Username, cached, 24*time.Hour)

	return &LoginInfo{
		Token:       token,
		UserId:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Email:       user.Email,
		FullName:    user.FullName,
		PhoneNumber: user.PhoneNumber,
	}, nil
}

func GetUserById(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundError("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetActiveOwners is the user-directory lookup the notification dispatcher
// fans out to.
func GetActiveOwners(ctx context.Context) ([]User, error) {
	db := config.GetDB()
	var owners []User
	err := db.WithContext(ctx).
		Where("role = ? AND is_active = ?", UserRoleOwner, true).
		Find(&owners).Error
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func GetEmployees(ctx context.Context) ([]User, error) {
	db := config.GetDB()
	var employees []User
	err := db.WithContext(ctx).
		Where("role = ? AND is_active = ?", UserRoleEmployee, true).
		Order("username ASC").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	for i := range employees {
		employees[i].PrepareGive()
	}
	return employees, nil
}

func GetEmployeeById(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var employee User
	err := db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", id, UserRoleEmployee, true).
		Take(&employee).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundError("employee not found")
		}
		return nil, err
	}
	employee.PrepareGive()
	return &employee, nil
}

func ChangePassword(ctx context.Context, userId int, newPassword string) error {
	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).Where("id = ?", userId).Take(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.NotFoundError("user not found")
		}
		return err
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", userId).
		Update("password", string(hashed)).Error; err != nil {
		return err
	}
	return user.RemoveInstanceRedis()
}

// ForgotPassword stamps a one-shot reset token valid for 24 hours. The token
// is returned to the caller; mailing it out belongs to a delivery layer we
// don't have here.
func ForgotPassword(ctx context.Context, email string) (string, *time.Time, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		Take(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Don't reveal whether the email exists.
			return "", nil, nil
		}
		return "", nil, err
	}

	resetToken := strings.ReplaceAll(uuid.NewString(), "-", "")
	expiry := time.Now().UTC().Add(24 * time.Hour)
	err = db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"reset_token":        resetToken,
			"reset_token_expiry": expiry,
		}).Error
	if err != nil {
		return "", nil, err
	}
	return resetToken, &expiry, nil
}

func ResetPassword(ctx context.Context, resetToken string, newPassword string) error {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expiry > ? AND is_active = ?",
			resetToken, time.Now().UTC(), true).
		Take(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ValidationError("reset token is invalid or expired")
		}
		return err
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password":           string(hashed),
			"reset_token":        nil,
			"reset_token_expiry": nil,
		}).Error
	if err != nil {
		return err
	}
	return user.RemoveInstanceRedis()
}

func UpdateFcmToken(ctx context.Context, userId int, fcmToken string) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&User{}).Where("id = ?", userId).
		Update("fcm_token", fcmToken)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Resubmitting the same token changes no rows; only a missing user
		// is an error.
		var count int64
		if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", userId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFoundError("user not found")
		}
	}
	return nil
}
