package models

import "fmt"

// Decision labels.
const (
	LabelApproved = "Approved"
	LabelRejected = "Rejected"
)

// LabelFor maps a raw classifier output onto its decision label:
// 1 is Rejected, 0 is Approved.
func LabelFor(class int) (string, error) {
	switch class {
	case 0:
		return LabelApproved, nil
	case 1:
		return LabelRejected, nil
	default:
		return "", fmt.Errorf("unexpected class %d, want 0 or 1", class)
	}
}

// PredictionResponse is the batch inference result, in input order.
type PredictionResponse struct {
	Predictions []string `json:"Predictions"`
}

// StatusResponse is the single-application result.
type StatusResponse struct {
	Status string `json:"Status"`
}
