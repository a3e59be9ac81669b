package models

import "time"

// Meet status values recorded on the Firestore meet document.
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Meet represents the main record for an uploaded meet program in Firestore.
// It tracks the overall status and metadata of the source file.
type Meet struct {
	ID               string    `firestore:"-" json:"id"`
	FileHash         string    `firestore:"fileHash,omitempty" json:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty" json:"originalFilename,omitempty"`
	FileURI          string    `firestore:"fileUri,omitempty" json:"fileUri,omitempty"`
	Status           string    `firestore:"status,omitempty" json:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty" json:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	EventCount       int       `firestore:"eventCount,omitempty" json:"eventCount,omitempty"`
	ChunkCount       int       `firestore:"chunkCount,omitempty" json:"chunkCount,omitempty"`
	FailedChunks     int       `firestore:"failedChunks,omitempty" json:"failedChunks,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Subscriber is one (email, swimmer) pair registered against a meet.
type Subscriber struct {
	Email       string `firestore:"email" json:"email"`
	SwimmerName string `firestore:"swimmerName" json:"swimmerName"`
}
