package model

// Document is a raw daily log supplied by the ingestion side.
type Document struct {
	ID         string `json:"doc_id"`
	Author     string `json:"author"`
	Department string `json:"department,omitempty"`
	Date       string `json:"date"`
	Content    string `json:"content"`
}
