package models

// Действия, на которые выдаются права
const (
	ActionView   = "view"
	ActionAdd    = "add"
	ActionChange = "change"
	ActionDelete = "delete"
)

// Имена моделей, используемые в кодах прав
const (
	ModelClient              = "client"
	ModelProduct             = "product"
	ModelProductType         = "producttype"
	ModelCredit              = "credit"
	ModelClientCreditProduct = "clientcreditproduct"
	ModelPayment             = "payment"
	ModelInterestRate        = "interestrate"
	ModelUser                = "user"
	ModelGroup               = "group"
)

// PermissionModels - модели, для которых при старте создаются права
var PermissionModels = []string{
	ModelClient,
	ModelProduct,
	ModelProductType,
	ModelCredit,
	ModelClientCreditProduct,
	ModelPayment,
	ModelInterestRate,
	ModelUser,
	ModelGroup,
}

// PermissionActions - действия в порядке создания прав
var PermissionActions = []string{ActionAdd, ActionChange, ActionDelete, ActionView}

// Permission - право на действие с моделью, например "change_credit"
type Permission struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Codename string `gorm:"column:codename;uniqueIndex;not null;size:100" json:"codename"`
	Name     string `gorm:"column:name;not null;size:255" json:"name"`
}

func (Permission) TableName() string {
	return "permissions"
}

// Group - роль пользователя, объединяющая набор прав
type Group struct {
	ID          uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"column:name;uniqueIndex;not null;size:150" json:"name"`
	Permissions []Permission `gorm:"many2many:group_permissions;" json:"permissions"`
}

func (Group) TableName() string {
	return "groups"
}

// PermissionCodename собирает код права из действия и модели
func PermissionCodename(action, model string) string {
	return action + "_" + model
}
