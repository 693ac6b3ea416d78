package models

import (
	"time"

	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
)

// VerificationRecord is one row per verification link generated.
//
// Invariants:
//   - SessionID is assigned exactly once at creation and is unique; it is the
//     join key the webhook uses to locate the record
//   - AgentEmail and AgentName are immutable after creation
//   - Status transitions are not validated here; the provider is the
//     authority on transition legality and any status may overwrite any other
type VerificationRecord struct {
	ID              id.RecordID `json:"id"`
	SubjectName     string      `json:"name"`
	SubjectPhone    string      `json:"phone"`
	SubjectEmail    string      `json:"user_email"`
	AgentEmail      string      `json:"agent_email"`
	AgentName       string      `json:"agent_name"`
	SessionID       string      `json:"kyc_id"`
	VerificationURL string      `json:"kyc_url"`
	Status          Status      `json:"kyc_status"`
	Downloaded      bool        `json:"downloaded"`
	SentAt          time.Time   `json:"date_sent"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NewVerificationRecord builds a record for a freshly created provider
// session. Subject fields are assumed validated by the service; ownership and
// session identity are required here because nothing downstream can repair
// them.
func NewVerificationRecord(recordID id.RecordID, subjectName, subjectPhone, subjectEmail, agentEmail, agentName, sessionID, url string, now time.Time) (*VerificationRecord, error) {
	if sessionID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "provider session id is required")
	}
	if agentEmail == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner email is required")
	}
	return &VerificationRecord{
		ID:              recordID,
		SubjectName:     subjectName,
		SubjectPhone:    subjectPhone,
		SubjectEmail:    subjectEmail,
		AgentEmail:      agentEmail,
		AgentName:       agentName,
		SessionID:       sessionID,
		VerificationURL: url,
		Status:          StatusNotStarted,
		Downloaded:      false,
		SentAt:          now,
		CreatedAt:       now,
	}, nil
}
