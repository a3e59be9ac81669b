package models

// These structs define the JSON payloads for HTTP requests and responses
// between the web client, the Cloud Workflow and the worker Cloud Functions.

// HighlightRequest is the input for the meet-highlighter function.
type HighlightRequest struct {
	MeetID      string `json:"meetId"`
	Team        string `json:"team"`
	Lanes       []int  `json:"lanes"`
	Color       string `json:"color,omitempty"`
	Style       string `json:"style,omitempty"`
	ExecutionID string `json:"executionId,omitempty"`
}

// HighlightResponse is the output of the meet-highlighter function.
// Instructions carries page-local shapes for the client-side renderer.
type HighlightResponse struct {
	Status           string            `json:"status"`
	Instructions     []DrawInstruction `json:"instructions"`
	HighlightsFound  int               `json:"highlightsFound"`
	AthletesSearched int               `json:"athletesSearched"`
	Message          string            `json:"message,omitempty"`
}

// SummaryRequest is the input for the summary-generator function.
type SummaryRequest struct {
	MeetID      string `json:"meetId"`
	Team        string `json:"team"`
	Lanes       []int  `json:"lanes"`
	ExecutionID string `json:"executionId,omitempty"`
}

// SummaryResponse is the output of the summary-generator function.
type SummaryResponse struct {
	Status        string `json:"status"`
	SummaryGCSUri string `json:"summaryGcsUri"`
	EntriesCount  int    `json:"entriesCount"`
	Message       string `json:"message,omitempty"`
}

// EmailDispatchRequest is the input for the email-dispatcher function.
type EmailDispatchRequest struct {
	MeetID      string `json:"meetId"`
	ExecutionID string `json:"executionId,omitempty"`
}

// EmailDispatchResponse is the output of the email-dispatcher function.
type EmailDispatchResponse struct {
	Status  string `json:"status"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Message string `json:"message,omitempty"`
}
