package models

import (
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaTypePDF   MediaType = "pdf"
	MediaTypeDocx  MediaType = "docx"
	MediaTypeText  MediaType = "text"
	MediaTypeImage MediaType = "image"
)

// MediaTypeForExtension maps an upload file extension (lowercase, with dot)
// to the media type the pipeline understands.
func MediaTypeForExtension(ext string) (MediaType, bool) {
	switch ext {
	case ".pdf":
		return MediaTypePDF, true
	case ".docx":
		return MediaTypeDocx, true
	case ".txt":
		return MediaTypeText, true
	case ".png", ".jpg", ".jpeg":
		return MediaTypeImage, true
	}
	return "", false
}

type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	MediaType        MediaType `gorm:"type:text" json:"media_type"`
	FilePath         string    `gorm:"type:text" json:"file_path"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
