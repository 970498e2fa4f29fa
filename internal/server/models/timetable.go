package models

import "github.com/dmitrijs2005/studymate/internal/server/tabular"

// Timetable is an uploaded spreadsheet. The decoded Document is kept for
// display and export; StorageKey points at the original bytes in blob
// storage and is empty when blob storage is disabled.
type Timetable struct {
	FileName   string           `json:"file_name"`
	Document   tabular.Document `json:"document"`
	StorageKey string           `json:"storage_key,omitempty"`
	// Checksum is the sha256 of the uploaded bytes. It is persisted as the
	// record fingerprint rather than with the payload.
	Checksum string `json:"-"`
}

// Text flattens every cell so timetables can be searched like notes.
func (t Timetable) Text() string {
	return t.Document.Text()
}
