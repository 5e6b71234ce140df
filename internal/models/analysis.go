package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

type AnalysisMode string

const (
	ModeText   AnalysisMode = "text"
	ModeVision AnalysisMode = "vision"
)

// Analysis is one batch of uploaded documents graded with a single
// configuration. Progress counters advance after each file finishes,
// whether it completed, was skipped, or failed.
type Analysis struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Backend        string         `gorm:"type:text;not null" json:"backend"`
	Mode           AnalysisMode   `gorm:"type:text;not null;default:'text'" json:"mode"`
	Context        string         `gorm:"type:text" json:"context"`
	TotalMarks     int            `gorm:"not null;default:100" json:"total_marks"`
	MaxWordCount   int            `gorm:"not null;default:300" json:"max_word_count"`
	Status         AnalysisStatus `gorm:"not null;default:'queued'" json:"status"`
	ProcessedCount int            `gorm:"not null;default:0" json:"processed_count"`
	TotalCount     int            `gorm:"not null;default:0" json:"total_count"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Files []AnalysisFile `gorm:"foreignKey:AnalysisID" json:"-"`
}

func (Analysis) TableName() string {
	return "analyses"
}

type FileStatus string

const (
	FileStatusPending   FileStatus = "pending"
	FileStatusCompleted FileStatus = "completed"
	FileStatusSkipped   FileStatus = "skipped"
	FileStatusFailed    FileStatus = "failed"
)

// AnalysisFile is the per-document outcome within a batch. Position
// preserves upload order, which is also processing order.
type AnalysisFile struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AnalysisID uuid.UUID  `gorm:"type:uuid;not null" json:"analysis_id"`
	DocumentID uuid.UUID  `gorm:"type:uuid;not null" json:"document_id"`
	Position   int        `gorm:"not null" json:"position"`
	Status     FileStatus `gorm:"not null;default:'pending'" json:"status"`
	Notice     *string    `gorm:"type:text" json:"notice,omitempty"`

	Strengths     *string `gorm:"type:text" json:"strengths,omitempty"`
	Weaknesses    *string `gorm:"type:text" json:"weaknesses,omitempty"`
	Opportunities *string `gorm:"type:text" json:"opportunities,omitempty"`
	Threats       *string `gorm:"type:text" json:"threats,omitempty"`
	TotalMarks    *string `gorm:"type:text" json:"total_marks,omitempty"`
	WordCount     *string `gorm:"type:text" json:"word_count,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Document Document `gorm:"foreignKey:DocumentID" json:"-"`
}

func (AnalysisFile) TableName() string {
	return "analysis_files"
}
