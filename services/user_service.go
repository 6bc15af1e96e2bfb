package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"creditdesk/models"
	"creditdesk/utils"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db        *gorm.DB
	validator *validator.Validate
}

type CreateUserRequest struct {
	ID          string `json:"id" validate:"required,max=20"`
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Phone       string `json:"phone" validate:"max=20"`
	Address     string `json:"address" validate:"max=100"`
	Password    string `json:"password" validate:"required,min=8,max=128,password"`
	IsActive    *bool  `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	Groups      []uint `json:"groups"`
}

type UpdateUserRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	Address     *string `json:"address" validate:"omitempty,max=100"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=128,password"`
	IsActive    *bool   `json:"is_active"`
	IsStaff     *bool   `json:"is_staff"`
	IsSuperuser *bool   `json:"is_superuser"`
	Groups      *[]uint `json:"groups"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLogin   *time.Time `json:"last_login"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	Groups      []uint     `json:"groups"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, validator: newValidator()}
}

func toUserResponse(user *models.User) *UserResponse {
	groups := make([]uint, len(user.Groups))
	for i, g := range user.Groups {
		groups[i] = g.ID
	}
	return &UserResponse{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		Phone:       user.Phone,
		Address:     user.Address,
		DateJoined:  user.DateJoined,
		LastLogin:   user.LastLogin,
		IsActive:    user.IsActive,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		Groups:      groups,
	}
}

// checkPasswordSimilarity не дает использовать email или имя в качестве пароля
func checkPasswordSimilarity(password string, user *models.User) error {
	lower := strings.ToLower(password)
	for _, attr := range []string{user.Email, user.FirstName, user.LastName, user.ID} {
		if attr != "" && strings.ToLower(attr) == lower {
			return &ValidationError{Field: "password", Message: "The password is too similar to the user's personal information."}
		}
	}
	if local, _, ok := strings.Cut(user.Email, "@"); ok && strings.ToLower(local) == lower {
		return &ValidationError{Field: "password", Message: "The password is too similar to the user's personal information."}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// loadGroups проверяет, что все группы существуют
func (h *UserService) loadGroups(db *gorm.DB, ids []uint) ([]models.Group, error) {
	if len(ids) == 0 {
		return []models.Group{}, nil
	}
	var groups []models.Group
	if err := db.Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, err
	}
	if len(groups) != len(uniqueIDs(ids)) {
		return nil, &ValidationError{Field: "groups", Message: "Invalid pk - object does not exist."}
	}
	return groups, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// emailTaken проверяет уникальность email без учета регистра
func (h *UserService) emailTaken(db *gorm.DB, email, exceptID string) (bool, error) {
	var count int64
	query := db.Model(&models.User{}).Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email))
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser создает нового пользователя
func (h *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if err := validateStruct(h.validator, req); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", req.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ValidationError{Field: "id", Message: "user with this id already exists."}
	}
	// Проверяем, существует ли пользователь с таким email
	taken, err := h.emailTaken(db, req.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Field: "email", Message: "user with this email already exists."}
	}

	user := &models.User{
		ID:          strings.TrimSpace(req.ID),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Address:     req.Address,
		DateJoined:  time.Now().UTC(),
		IsActive:    req.IsActive == nil || *req.IsActive,
		IsStaff:     req.IsStaff,
		IsSuperuser: req.IsSuperuser,
	}
	if err := checkPasswordSimilarity(req.Password, user); err != nil {
		return nil, err
	}

	groups, err := h.loadGroups(db, req.Groups)
	if err != nil {
		return nil, err
	}

	// Хешируем пароль
	if user.Password, err = hashPassword(req.Password); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Omit("Groups").Create(user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(groups) > 0 {
		if err := tx.Model(user).Association("Groups").Replace(groups); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	user.Groups = groups
	utils.LogInfo("создан пользователь %s", user.ID)
	return toUserResponse(user), nil
}

// findById ищет пользователя по ID
func (h *UserService) findById(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Preload("Groups").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", id)
		}
		return nil, err
	}
	return &user, nil
}

// GetUser возвращает пользователя по ID
func (h *UserService) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	user, err := h.findById(h.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// FindByEmail ищет пользователя по email (игнорируя регистр и пробелы)
func (h *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := h.db.WithContext(ctx).Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", email)
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers возвращает страницу пользователей с поиском по ID, имени и email
func (h *UserService) ListUsers(ctx context.Context, params ListParams) (Page[UserResponse], error) {
	params = params.Normalize()
	query := h.db.WithContext(ctx).Model(&models.User{})
	if params.Search != "" {
		pattern := likePattern(strings.ToLower(params.Search))
		query = query.Where(
			"LOWER(id) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[UserResponse]{}, err
	}

	var users []models.User
	if err := query.Preload("Groups").Scopes(params.Paginate).Order("id ASC").Find(&users).Error; err != nil {
		return Page[UserResponse]{}, err
	}

	results := make([]UserResponse, len(users))
	for i := range users {
		results[i] = *toUserResponse(&users[i])
	}
	return newPage(results, total, params), nil
}

// UpdateUser обновляет переданные поля; пароль хешируется заново
func (h *UserService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	if err := validateStruct(h.validator, req); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)
	user, err := h.findById(db, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		taken, err := h.emailTaken(db, *req.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &ValidationError{Field: "email", Message: "user with this email already exists."}
		}
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.Password != nil {
		if err := checkPasswordSimilarity(*req.Password, user); err != nil {
			return nil, err
		}
		if user.Password, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	var groups []models.Group
	if req.Groups != nil {
		if groups, err = h.loadGroups(db, *req.Groups); err != nil {
			return nil, err
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Omit("Groups").Save(user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if req.Groups != nil {
		if err := tx.Model(user).Association("Groups").Replace(groups); err != nil {
			tx.Rollback()
			return nil, err
		}
		user.Groups = groups
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// DeactivateUser выполняет мягкое удаление пользователя
func (h *UserService) DeactivateUser(ctx context.Context, id string) error {
	result := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("user", id)
	}
	utils.LogInfo("пользователь %s деактивирован", id)
	return nil
}

// Authenticate проверяет email и пароль активного пользователя и обновляет last_login
func (h *UserService) Authenticate(ctx context.Context, req SignInRequest) (*UserResponse, error) {
	if err := validateStruct(h.validator, req); err != nil {
		return nil, err
	}

	user, err := h.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := h.db.WithContext(ctx).Model(user).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return h.GetUser(ctx, user.ID)
}

// EnsureSuperuser создает суперпользователя, если пользователя с таким email еще нет
func (h *UserService) EnsureSuperuser(ctx context.Context, id, email, password string) error {
	taken, err := h.emailTaken(h.db.WithContext(ctx), email, "")
	if err != nil {
		return err
	}
	if taken {
		return nil
	}

	active := true
	_, err = h.CreateUser(ctx, CreateUserRequest{
		ID:          id,
		FirstName:   "Admin",
		LastName:    "Admin",
		Email:       email,
		Password:    password,
		IsActive:    &active,
		IsStaff:     true,
		IsSuperuser: true,
	})
	return err
}
