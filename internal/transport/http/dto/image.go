package dto

// SaveImageRequest тело POST /image/save
type SaveImageRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Category string `json:"category" validate:"required,max=50"`
	URL      string `json:"url" validate:"required"`
	Prompt   string `json:"prompt" validate:"required"`
}

// SaveImageInput данные для сохранения изображения от имени пользователя
type SaveImageInput struct {
	UserID      string
	Title       string
	Category    string
	URL         string
	Prompt      string
	IsGenerated bool
}

func (r SaveImageRequest) ToInput(userID string) SaveImageInput {
	return SaveImageInput{
		UserID:   userID,
		Title:    r.Title,
		Category: r.Category,
		URL:      r.URL,
		Prompt:   r.Prompt,
	}
}

type SaveImageResponse struct {
	ImageID string `json:"image_id"`
	Message string `json:"message"`
}

type UploadImageResponse struct {
	URL string `json:"url"`
}
