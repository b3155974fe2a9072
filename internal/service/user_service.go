package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campus-teranga/internal/domain"
	"campus-teranga/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrForbidden          = errors.New("insufficient privileges")
	ErrRateLimited        = errors.New("too many login attempts")
)

// FieldError reports one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors itemizes every invalid field so the caller can correct
// each one, instead of a single generic message.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{8,14}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s\-']+$`)
)

// UserService coordinates account lifecycle and role rules for credential
// records.
type UserService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	limiter LoginRateLimiter
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, limiter LoginRateLimiter) *UserService {
	return &UserService{
		logger:  logger,
		users:   users,
		limiter: limiter,
	}
}

type RegisterInput struct {
	FullName        string
	PhoneNumber     string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates a self-service account. The role is always forced to
// user and is never read from input.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	phone := normalizePhone(input.PhoneNumber)
	emailAddr := normalizeEmail(input.Email)

	var verrs ValidationErrors
	verrs = append(verrs, validateFullName(fullName)...)
	verrs = append(verrs, validatePhone(phone)...)
	verrs = append(verrs, validateEmail(emailAddr)...)
	verrs = append(verrs, validatePassword(input.Password)...)
	if input.ConfirmPassword != "" && input.ConfirmPassword != input.Password {
		verrs = append(verrs, FieldError{Field: "confirmPassword", Message: "Passwords do not match"})
	}
	if len(verrs) > 0 {
		return domain.User{}, verrs
	}

	// Pre-flight duplicate check for a friendly error before hashing; the
	// unique constraint on the insert remains the arbiter under races.
	if emailAddr != "" {
		if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
			return domain.User{}, repository.ErrEmailTaken
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, err
		}
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		PhoneNumber:  phone,
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("phone_number", user.PhoneNumber),
	)
	return user, nil
}

// Authenticate verifies a phone/password pair. Unknown phone and wrong
// password collapse to the same error; a deactivated account is reported
// distinctly, after the account is known to exist.
func (s *UserService) Authenticate(ctx context.Context, phone, password string) (domain.User, error) {
	phone = normalizePhone(phone)
	// The secret is an opaque byte string; it is never trimmed or otherwise
	// normalized, here or at registration.
	if phone == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	if s.limiter != nil && !s.limiter.Allow(phone) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !user.IsActive {
		return domain.User{}, ErrAccountDeactivated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login attempt", zap.String("phone_number", phone))
		return domain.User{}, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

type UpdateProfileInput struct {
	FullName *string
	Email    *string

	// Role and IsActive are decoded so their presence can be rejected
	// explicitly; self-service updates may never touch them.
	Role     *string
	IsActive *bool
}

// UpdateProfile mutates the caller's own non-privileged fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.User, error) {
	var verrs ValidationErrors
	if input.Role != nil {
		verrs = append(verrs, FieldError{Field: "role", Message: "Role cannot be changed on profile update"})
	}
	if input.IsActive != nil {
		verrs = append(verrs, FieldError{Field: "isActive", Message: "Account status cannot be changed on profile update"})
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	fullName := user.FullName
	if input.FullName != nil {
		fullName = strings.TrimSpace(*input.FullName)
		verrs = append(verrs, validateFullName(fullName)...)
	}
	emailAddr := user.Email
	if input.Email != nil {
		emailAddr = normalizeEmail(*input.Email)
		verrs = append(verrs, validateEmail(emailAddr)...)
	}
	if len(verrs) > 0 {
		return domain.User{}, verrs
	}

	updated, err := s.users.UpdateProfile(ctx, userID, fullName, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	s.logger.Info("profile updated", zap.String("user_id", userID))
	return updated, nil
}

// ChangePassword re-verifies the current secret before storing a new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, confirmPassword string) error {
	var verrs ValidationErrors
	if strings.TrimSpace(currentPassword) == "" {
		verrs = append(verrs, FieldError{Field: "currentPassword", Message: "Current password is required"})
	}
	verrs = append(verrs, validatePassword(newPassword)...)
	if confirmPassword != "" && confirmPassword != newPassword {
		verrs = append(verrs, FieldError{Field: "confirmPassword", Message: "Passwords do not match"})
	}
	if len(verrs) > 0 {
		return verrs
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hashBytes)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// Deactivate suspends the caller's own account. Suspension is not deletion;
// the record stays and blocks authentication until an admin reactivates it.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("account deactivated", zap.String("user_id", userID))
	return nil
}

func (s *UserService) List(ctx context.Context, filter repository.ListFilter) ([]domain.User, int, error) {
	return s.users.List(ctx, filter)
}

type AdminUpdateInput struct {
	FullName    *string
	Email       *string
	PhoneNumber *string
	IsActive    *bool
	Role        *string
}

// AdminUpdate mutates privileged fields of any record. A role value supplied
// by a non-super-admin actor is dropped, not applied; the rest of the update
// still goes through.
func (s *UserService) AdminUpdate(ctx context.Context, actor domain.User, targetID string, input AdminUpdateInput) (domain.User, error) {
	user, err := s.GetByID(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}

	var verrs ValidationErrors
	fullName := user.FullName
	if input.FullName != nil {
		fullName = strings.TrimSpace(*input.FullName)
		verrs = append(verrs, validateFullName(fullName)...)
	}
	emailAddr := user.Email
	if input.Email != nil {
		emailAddr = normalizeEmail(*input.Email)
		verrs = append(verrs, validateEmail(emailAddr)...)
	}
	if input.Role != nil && !domain.Role(*input.Role).Valid() {
		verrs = append(verrs, FieldError{Field: "role", Message: "Unknown role"})
	}
	if len(verrs) > 0 {
		return domain.User{}, verrs
	}

	updated, err := s.users.UpdateProfile(ctx, targetID, fullName, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if input.IsActive != nil && *input.IsActive != updated.IsActive {
		if err := s.users.SetActive(ctx, targetID, *input.IsActive); err != nil {
			return domain.User{}, err
		}
		updated.IsActive = *input.IsActive
		s.logger.Info("account status changed",
			zap.String("user_id", targetID),
			zap.Bool("is_active", *input.IsActive),
			zap.String("changed_by", actor.ID),
		)
	}

	if input.Role != nil {
		if actor.Role != domain.RoleSuperAdmin {
			s.logger.Warn("role change ignored",
				zap.String("user_id", targetID),
				zap.String("actor_id", actor.ID),
				zap.String("actor_role", string(actor.Role)),
			)
		} else {
			updated, err = s.UpdateRole(ctx, actor, targetID, domain.Role(*input.Role))
			if err != nil {
				return domain.User{}, err
			}
		}
	}
	return updated, nil
}

// UpdateRole changes a record's privilege tier. Only a super_admin actor may
// do this, for any record including their own.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.User, targetID string, role domain.Role) (domain.User, error) {
	if actor.Role != domain.RoleSuperAdmin {
		return domain.User{}, ErrForbidden
	}
	if !role.Valid() {
		return domain.User{}, ValidationErrors{{Field: "role", Message: "Unknown role"}}
	}
	updated, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	s.logger.Info("user role changed",
		zap.String("user_id", targetID),
		zap.String("new_role", string(role)),
		zap.String("changed_by", actor.ID),
	)
	return updated, nil
}

// Delete hard-deletes a credential record. Always super_admin only.
func (s *UserService) Delete(ctx context.Context, actor domain.User, targetID string) error {
	if actor.Role != domain.RoleSuperAdmin {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("user deleted",
		zap.String("user_id", targetID),
		zap.String("deleted_by", actor.ID),
	)
	return nil
}

// normalizePhone strips everything except digits and a leading plus sign.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateFullName(fullName string) ValidationErrors {
	var verrs ValidationErrors
	if fullName == "" {
		return ValidationErrors{{Field: "fullName", Message: "Full name is required"}}
	}
	if len(fullName) < 2 || len(fullName) > 50 {
		verrs = append(verrs, FieldError{Field: "fullName", Message: "Full name must be between 2 and 50 characters"})
	}
	if !namePattern.MatchString(fullName) {
		verrs = append(verrs, FieldError{Field: "fullName", Message: "Full name can only contain letters, spaces, hyphens, and apostrophes"})
	}
	return verrs
}

func validatePhone(phone string) ValidationErrors {
	if phone == "" {
		return ValidationErrors{{Field: "phoneNumber", Message: "Phone number is required"}}
	}
	if !phonePattern.MatchString(phone) {
		return ValidationErrors{{Field: "phoneNumber", Message: "Please provide a valid phone number"}}
	}
	return nil
}

func validateEmail(email string) ValidationErrors {
	if email == "" {
		return nil
	}
	var verrs ValidationErrors
	if !emailPattern.MatchString(email) {
		verrs = append(verrs, FieldError{Field: "email", Message: "Please provide a valid email address"})
	}
	if len(email) > 254 {
		verrs = append(verrs, FieldError{Field: "email", Message: "Email address is too long"})
	}
	return verrs
}

func validatePassword(password string) ValidationErrors {
	if password == "" {
		return ValidationErrors{{Field: "password", Message: "Password is required"}}
	}
	var verrs ValidationErrors
	if len(password) < 8 || len(password) > 128 {
		verrs = append(verrs, FieldError{Field: "password", Message: "Password must be between 8 and 128 characters"})
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		verrs = append(verrs, FieldError{
			Field:   "password",
			Message: "Password must contain at least one uppercase letter, one lowercase letter, and one number",
		})
	}
	return verrs
}
