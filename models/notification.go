package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
)

type Notification struct {
	ID        int       `gorm:"primary_key" json:"id"`
	UserId    int       `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"size:1000" json:"message"`
	InvoiceId *int      `gorm:"index" json:"invoice_id"`
	IsRead    *bool     `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func CreateNotifications(ctx context.Context, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Create(&notifications).Error
}

func ListNotifications(ctx context.Context, userId int, unreadOnly bool) ([]Notification, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Where("user_id = ?", userId)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []Notification
	err := query.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationAsRead is scoped to the recipient; a notification belonging
// to someone else reads as not found rather than forbidden.
func MarkNotificationAsRead(ctx context.Context, userId int, notificationId int) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", notificationId, userId).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		err := db.WithContext(ctx).Model(&Notification{}).
			Where("id = ? AND user_id = ?", notificationId, userId).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return utils.NotFoundError("notification not found")
		}
	}
	return nil
}

func MarkAllNotificationsAsRead(ctx context.Context, userId int) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
