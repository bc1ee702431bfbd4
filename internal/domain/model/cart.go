package model

import "time"

// カートの保持期間。これを過ぎたカートは次のアクセス時に空にする。
const CartRetention = 30 * 24 * time.Hour

// 1ユーザーにつきカートは1つ
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsExpired は最終更新から保持期間を超えているかを返す。
func (c Cart) IsExpired(now time.Time) bool {
	if c.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(c.UpdatedAt) > CartRetention
}
