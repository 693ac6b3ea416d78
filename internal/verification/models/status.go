package models

// Status is a canonical verification outcome. The provider vocabulary is the
// internal source of truth; Spanish display labels exist only for the
// dashboard.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusApproved   Status = "Approved"
	StatusDeclined   Status = "Declined"
	StatusInReview   Status = "In Review"
	StatusExpired    Status = "Expired"
	StatusAbandoned  Status = "Abandoned"
	StatusKycExpired Status = "Kyc Expired"
)

// AllStatuses lists every canonical status in display order.
var AllStatuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusApproved,
	StatusDeclined,
	StatusInReview,
	StatusExpired,
	StatusAbandoned,
	StatusKycExpired,
}

var displayLabels = map[Status]string{
	StatusNotStarted: "Enviado",
	StatusInProgress: "En Progreso",
	StatusApproved:   "Aprobado",
	StatusDeclined:   "Declinado",
	StatusInReview:   "En Revisión",
	StatusExpired:    "Expirado",
	StatusAbandoned:  "Abandonado",
	StatusKycExpired: "KYC Expirado",
}

// reverseLabels maps a display label back to canonical statuses. List-valued
// so a future display bucket can cover several provider statuses; today each
// list has exactly one element.
var reverseLabels = map[string][]Status{}

func init() {
	for status, label := range displayLabels {
		reverseLabels[label] = append(reverseLabels[label], status)
	}
}

// Valid reports whether s is one of the eight canonical statuses.
func (s Status) Valid() bool {
	_, ok := displayLabels[s]
	return ok
}

// DisplayLabel returns the Spanish label for a canonical status. The mapping
// is total; unknown statuses fall back to their raw value so a new provider
// status degrades visibly instead of disappearing.
func (s Status) DisplayLabel() string {
	if label, ok := displayLabels[s]; ok {
		return label
	}
	return string(s)
}

// StatusesForLabel resolves a display label to its canonical statuses.
// Unknown labels resolve to nil.
func StatusesForLabel(label string) []Status {
	return reverseLabels[label]
}
