package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gradewise/assignment-evaluator/internal/models"
)

type AnalysisRepository interface {
	Create(analysis *models.Analysis, files []models.AnalysisFile) error
	FindByID(id uuid.UUID) (*models.Analysis, error)
	FindFiles(analysisID uuid.UUID) ([]models.AnalysisFile, error)
	ClaimJob(id uuid.UUID) (bool, error)
	UpdateStatus(id uuid.UUID, status models.AnalysisStatus) error
	UpdateError(id uuid.UUID, errorMsg string) error
	ResetProgress(id uuid.UUID) error
	AdvanceProgress(id uuid.UUID) error
	UpdateFileReport(fileID uuid.UUID, report *models.SwotReport) error
	UpdateFileNotice(fileID uuid.UUID, status models.FileStatus, notice string) error
	FindPendingJobs(limit int) ([]models.Analysis, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create stores the batch and its per-file rows in one transaction so a
// job is never visible without its files.
func (r *analysisRepository) Create(analysis *models.Analysis, files []models.AnalysisFile) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(analysis).Error; err != nil {
			return err
		}
		if len(files) > 0 {
			if err := tx.Create(&files).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("analysis not found")
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

func (r *analysisRepository) FindFiles(analysisID uuid.UUID) ([]models.AnalysisFile, error) {
	var files []models.AnalysisFile
	err := r.db.
		Preload("Document").
		Where("analysis_id = ?", analysisID).
		Order("position ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis files: %w", err)
	}
	return files, nil
}

// ClaimJob moves a queued job to processing in one conditional update.
// A job enqueued twice (handler enqueue plus poller pickup) yields one
// successful claim; the loser sees false and skips.
func (r *analysisRepository) ClaimJob(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim job: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *analysisRepository) UpdateStatus(id uuid.UUID, status models.AnalysisStatus) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis not found")
	}

	return nil
}

func (r *analysisRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis not found")
	}

	return nil
}

// ResetProgress zeroes the processed counter at the start of a run.
func (r *analysisRepository) ResetProgress(id uuid.UUID) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_count": 0,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to reset progress: %w", result.Error)
	}

	return nil
}

// AdvanceProgress bumps the processed counter by one after a file
// finishes, regardless of its outcome.
func (r *analysisRepository) AdvanceProgress(id uuid.UUID) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_count": gorm.Expr("processed_count + 1"),
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to advance progress: %w", result.Error)
	}

	return nil
}

func (r *analysisRepository) UpdateFileReport(fileID uuid.UUID, report *models.SwotReport) error {
	result := r.db.Model(&models.AnalysisFile{}).
		Where("id = ?", fileID).
		Updates(map[string]interface{}{
			"status":        models.FileStatusCompleted,
			"strengths":     report.Strengths,
			"weaknesses":    report.Weaknesses,
			"opportunities": report.Opportunities,
			"threats":       report.Threats,
			"total_marks":   report.TotalMarks,
			"word_count":    report.WordCount,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update file report: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis file not found")
	}

	return nil
}

func (r *analysisRepository) UpdateFileNotice(fileID uuid.UUID, status models.FileStatus, notice string) error {
	result := r.db.Model(&models.AnalysisFile{}).
		Where("id = ?", fileID).
		Updates(map[string]interface{}{
			"status":     status,
			"notice":     notice,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update file notice: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis file not found")
	}

	return nil
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.Analysis, error) {
	var jobs []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return jobs, nil
}
