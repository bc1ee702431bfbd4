package model

import "time"

// 割引ルールの作成・更新・削除など。
type AuditAction string

const (
	AuditActionCreateDiscountRule AuditAction = "CREATE_DISCOUNT_RULE"
	AuditActionUpdateDiscountRule AuditAction = "UPDATE_DISCOUNT_RULE"
	AuditActionDeleteDiscountRule AuditAction = "DELETE_DISCOUNT_RULE"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceDiscountRule AuditResourceType = "discount_rule"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザー（管理者）のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。作成時は空。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。削除時は空。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
