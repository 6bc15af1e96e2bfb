package services

import (
	"context"
	"errors"
	"strings"

	"creditdesk/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// GroupDTO - данные группы и ее прав
type GroupDTO struct {
	Name        string `json:"name" validate:"required,max=150"`
	Permissions []uint `json:"permissions"`
}

// AccessService ведет группы и права и проверяет доступ пользователей к моделям
type AccessService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewAccessService создает новый экземпляр AccessService
func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db, validator: newValidator()}
}

// HasPermission сообщает, может ли пользователь выполнить действие над моделью.
// Неактивный пользователь не имеет прав, суперпользователь имеет все права.
func (s *AccessService) HasPermission(ctx context.Context, userID, action, model string) (bool, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !user.IsActive {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Table("permissions").
		Joins("JOIN group_permissions ON group_permissions.permission_id = permissions.id").
		Joins("JOIN user_groups ON user_groups.group_id = group_permissions.group_id").
		Where("user_groups.user_id = ? AND permissions.codename = ?", userID, models.PermissionCodename(action, model)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListPermissions возвращает все права, упорядоченные по коду
func (s *AccessService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	if err := s.db.WithContext(ctx).Order("codename ASC").Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

func (s *AccessService) loadPermissions(db *gorm.DB, ids []uint) ([]models.Permission, error) {
	if len(ids) == 0 {
		return []models.Permission{}, nil
	}
	var permissions []models.Permission
	if err := db.Where("id IN ?", ids).Find(&permissions).Error; err != nil {
		return nil, err
	}
	if len(permissions) != len(uniqueIDs(ids)) {
		return nil, &ValidationError{Field: "permissions", Message: "Invalid pk - object does not exist."}
	}
	return permissions, nil
}

func (s *AccessService) nameTaken(db *gorm.DB, name string, exceptID uint) (bool, error) {
	var count int64
	query := db.Model(&models.Group{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateGroup создает группу с набором прав
func (s *AccessService) CreateGroup(ctx context.Context, dto GroupDTO) (*models.Group, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	dto.Name = strings.TrimSpace(dto.Name)

	db := s.db.WithContext(ctx)
	taken, err := s.nameTaken(db, dto.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Field: "name", Message: "group with this name already exists."}
	}
	permissions, err := s.loadPermissions(db, dto.Permissions)
	if err != nil {
		return nil, err
	}

	group := &models.Group{Name: dto.Name}
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Omit("Permissions").Create(group).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(permissions) > 0 {
		if err := tx.Model(group).Association("Permissions").Replace(permissions); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	group.Permissions = permissions
	return group, nil
}

// GetGroup возвращает группу с правами
func (s *AccessService) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).Preload("Permissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("permissions.codename ASC")
	}).First(&group, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("group", id)
		}
		return nil, err
	}
	return &group, nil
}

// ListGroups возвращает страницу групп с поиском по названию
func (s *AccessService) ListGroups(ctx context.Context, params ListParams) (Page[models.Group], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Group{})
	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(strings.ToLower(params.Search)))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.Group]{}, err
	}

	var groups []models.Group
	if err := query.Preload("Permissions").Scopes(params.Paginate).Order("id ASC").Find(&groups).Error; err != nil {
		return Page[models.Group]{}, err
	}
	return newPage(groups, total, params), nil
}

// UpdateGroup переименовывает группу и заменяет ее права
func (s *AccessService) UpdateGroup(ctx context.Context, id uint, dto GroupDTO) (*models.Group, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	dto.Name = strings.TrimSpace(dto.Name)

	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	taken, err := s.nameTaken(db, dto.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Field: "name", Message: "group with this name already exists."}
	}
	permissions, err := s.loadPermissions(db, dto.Permissions)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Model(group).Update("name", dto.Name).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(group).Association("Permissions").Replace(permissions); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	group.Name = dto.Name
	group.Permissions = permissions
	return group, nil
}

// DeleteGroup удаляет группу вместе со связями с правами и пользователями
func (s *AccessService) DeleteGroup(ctx context.Context, id uint) error {
	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Model(group).Association("Permissions").Clear(); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Exec("DELETE FROM user_groups WHERE group_id = ?", id).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(group).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
