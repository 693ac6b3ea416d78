// Package filter implements the in-memory predicate combinator the dashboard
// applies to a loaded record set. It never mutates its input and preserves
// input ordering.
package filter

import (
	"strings"

	"cikyc/internal/verification/models"
)

// Filter returns the records matching the selected statuses and search text.
//
// Status selection is an OR across canonical statuses; an empty selection
// applies no status filtering. Search text, trimmed, matches case-insensitively
// as a substring against subject name, email, and phone (any field matching
// includes the record). Both filters combine with AND when both are active.
func Filter(records []*models.VerificationRecord, statuses []models.Status, search string) []*models.VerificationRecord {
	filtered := records

	if len(statuses) > 0 {
		selected := make(map[models.Status]struct{}, len(statuses))
		for _, s := range statuses {
			selected[s] = struct{}{}
		}
		matched := make([]*models.VerificationRecord, 0, len(filtered))
		for _, rec := range filtered {
			if _, ok := selected[rec.Status]; ok {
				matched = append(matched, rec)
			}
		}
		filtered = matched
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	if needle != "" {
		matched := make([]*models.VerificationRecord, 0, len(filtered))
		for _, rec := range filtered {
			if matchesSearch(rec, needle) {
				matched = append(matched, rec)
			}
		}
		filtered = matched
	}

	return filtered
}

func matchesSearch(rec *models.VerificationRecord, needle string) bool {
	return strings.Contains(strings.ToLower(rec.SubjectName), needle) ||
		strings.Contains(strings.ToLower(rec.SubjectEmail), needle) ||
		strings.Contains(strings.ToLower(rec.SubjectPhone), needle)
}

// ExpandLabels converts dashboard display labels to canonical statuses via
// the reverse mapping. Labels that already are canonical statuses pass
// through, mirroring the dashboard's historical leniency; unknown values are
// dropped.
func ExpandLabels(labels []string) []models.Status {
	var out []models.Status
	for _, label := range labels {
		if mapped := models.StatusesForLabel(label); mapped != nil {
			out = append(out, mapped...)
			continue
		}
		if s := models.Status(label); s.Valid() {
			out = append(out, s)
		}
	}
	return out
}
