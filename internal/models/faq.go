package models

// FAQEntry is a read-only question/answer pair served by the FAQ directory.
type FAQEntry struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}
