package models

import (
	"strings"

	"gorm.io/gorm"
)

// User — карточка пользователя для отображения имени. Заполняется внешним
// сервисом идентификации, очередь читает её только для вывода.
type User struct {
	gorm.Model
	ExternalID string `gorm:"uniqueIndex;not null"` // Непрозрачный идентификатор, которым помечаются записи очереди
	Name       string `gorm:"not null"`
	Surname    string
}

// DisplayName возвращает "Имя Фамилия" без лишних пробелов.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}
