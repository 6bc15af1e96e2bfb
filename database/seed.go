package database

import (
	"fmt"

	"creditdesk/models"

	"gorm.io/gorm"
)

// AdministratorGroup - группа, которой при старте выдаются все права
const AdministratorGroup = "Administrator"

var actionNames = map[string]string{
	models.ActionAdd:    "Can add",
	models.ActionChange: "Can change",
	models.ActionDelete: "Can delete",
	models.ActionView:   "Can view",
}

// SeedPermissions создает недостающие права для всех моделей и группу администраторов
func SeedPermissions(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var all []models.Permission
		for _, model := range models.PermissionModels {
			for _, action := range models.PermissionActions {
				perm := models.Permission{Codename: models.PermissionCodename(action, model)}
				attrs := models.Permission{Name: actionNames[action] + " " + model}
				if err := tx.Where(models.Permission{Codename: perm.Codename}).
					Attrs(attrs).
					FirstOrCreate(&perm).Error; err != nil {
					return fmt.Errorf("ошибка создания права %s: %w", perm.Codename, err)
				}
				all = append(all, perm)
			}
		}

		group := models.Group{Name: AdministratorGroup}
		if err := tx.Where(models.Group{Name: AdministratorGroup}).FirstOrCreate(&group).Error; err != nil {
			return fmt.Errorf("ошибка создания группы администраторов: %w", err)
		}
		if err := tx.Model(&group).Association("Permissions").Replace(all); err != nil {
			return fmt.Errorf("ошибка назначения прав администраторам: %w", err)
		}
		return nil
	})
}
