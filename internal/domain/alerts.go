package domain

// AlertStatus is the banner state derived from a user's unread alerts.
type AlertStatus string

const (
	// StatusUrgent: at least one critical or high alert is unread.
	StatusUrgent AlertStatus = "urgent"
	// StatusAdvisory: unread alerts exist, none critical or high.
	StatusAdvisory AlertStatus = "advisory"
	// StatusNominal: nothing unread.
	StatusNominal AlertStatus = "nominal"
)

// AlertSummary partitions a user's recent alerts for presentation.
type AlertSummary struct {
	Total          int         `json:"total"`
	Unread         int         `json:"unread"`
	CriticalUnread int         `json:"critical_unread"`
	HighUnread     int         `json:"high_unread"`
	Status         AlertStatus `json:"status"`
}

// severityRank orders severities low < medium < high < critical.
var severityRank = map[AlertSeverity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityRank returns the ordinal of a severity, -1 for unknown values.
func SeverityRank(s AlertSeverity) int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// SummarizeAlerts derives the unread counters and banner status from a
// user's alerts. Precedence: any unread critical-or-high alert is urgent,
// any other unread alert is advisory, otherwise nominal.
func SummarizeAlerts(alerts []Alert) AlertSummary {
	summary := AlertSummary{Total: len(alerts), Status: StatusNominal}

	for _, a := range alerts {
		if a.IsRead {
			continue
		}
		summary.Unread++
		switch a.Severity {
		case SeverityCritical:
			summary.CriticalUnread++
		case SeverityHigh:
			summary.HighUnread++
		}
	}

	switch {
	case summary.CriticalUnread > 0 || summary.HighUnread > 0:
		summary.Status = StatusUrgent
	case summary.Unread > 0:
		summary.Status = StatusAdvisory
	}

	return summary
}
