package models

// Required top-level keys of a grading reply. Validation is a
// case-sensitive membership check; value types are not enforced.
var RequiredReportKeys = []string{
	"Strengths",
	"Weaknesses",
	"Opportunities",
	"Threats",
	"Total Marks",
	"Word Count",
}

// SwotReport is the validated grading result for one document. Marks and
// word count are kept as the literal values the backend returned,
// rendered to strings, since models reply with either numbers or strings.
type SwotReport struct {
	Strengths     string `json:"Strengths"`
	Weaknesses    string `json:"Weaknesses"`
	Opportunities string `json:"Opportunities"`
	Threats       string `json:"Threats"`
	TotalMarks    string `json:"Total Marks"`
	WordCount     string `json:"Word Count"`
}
