package models

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	MediaType    string `json:"media_type"`
}

type AnalyzeRequest struct {
	DocumentIDs  []string `json:"document_ids" validate:"required,min=1,dive,uuid4"`
	Backend      string   `json:"backend" validate:"omitempty,oneof=gemini openai groq"`
	Mode         string   `json:"mode" validate:"omitempty,oneof=text vision"`
	Context      string   `json:"context"`
	TotalMarks   *int     `json:"total_marks" validate:"omitempty,min=0"`
	MaxWordCount *int     `json:"max_word_count" validate:"omitempty,min=10,max=3000"`
}

type AnalyzeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type FileResult struct {
	DocumentID string      `json:"document_id"`
	Filename   string      `json:"filename"`
	Status     string      `json:"status"`
	Notice     *string     `json:"notice,omitempty"`
	Report     *SwotReport `json:"report,omitempty"`
}

type ResultResponse struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	Progress     Progress     `json:"progress"`
	Files        []FileResult `json:"files,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}

type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}
