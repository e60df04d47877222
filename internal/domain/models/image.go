package models

import (
	"time"
)

// Фиксированный словарь категорий галереи. CategoryAll существует только
// как фильтр представления и никогда не хранится в записи.
const (
	CategoryAll       = "all"
	CategoryNature    = "nature"
	CategoryUrban     = "urban"
	CategoryArt       = "art"
	CategoryAI        = "ai"
	CategoryGenerated = "generated"
)

// GalleryCategories перечисляет вкладки галереи в порядке отображения
var GalleryCategories = []string{CategoryAll, CategoryNature, CategoryUrban, CategoryArt, CategoryAI}

// Image представляет изображение сообщества
type Image struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id,omitempty" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Category    string    `json:"category" db:"category"`
	URL         string    `json:"url" db:"url"`
	Likes       int       `json:"likes" db:"likes"`
	Prompt      *string   `json:"prompt,omitempty" db:"prompt"` // Есть только у сгенерированных изображений
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	IsGenerated bool      `json:"is_generated" db:"is_generated"`
	Views       int       `json:"views" db:"views"`
	LikedBy     []string  `json:"liked_by,omitempty" db:"liked_by"` // nil, если сервер не прислал список
}

// IsLikedBy сообщает, есть ли userID в списке лайкнувших
func (i Image) IsLikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range i.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// LikeResult - авторитетное состояние лайка после переключения на сервере
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}
