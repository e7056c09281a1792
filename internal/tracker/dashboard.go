package tracker

import (
	"sort"
)

const (
	dashboardMedications  = 3
	dashboardSymptoms     = 3
	dashboardAppointments = 2
)

type Dashboard struct {
	LatestVitals         []VitalSign   `json:"latestVitals"`
	UpcomingMedications  []Medication  `json:"upcomingMedications"`
	RecentSymptoms       []SymptomLog  `json:"recentSymptoms"`
	UpcomingAppointments []Appointment `json:"upcomingAppointments"`
	Alert                *PatternAlert `json:"alert,omitempty"`
}

// BuildDashboard never modifies its inputs.
func BuildDashboard(vitals []VitalSign, meds []Medication, symptoms []SymptomLog, appts []Appointment) Dashboard {
	return Dashboard{
		LatestVitals:         LatestVitals(vitals),
		UpcomingMedications:  UpcomingMedications(meds),
		RecentSymptoms:       RecentSymptoms(symptoms),
		UpcomingAppointments: UpcomingAppointments(appts),
	}
}

// LatestVitals returns the most recent reading of each type, in VitalTypes order.
func LatestVitals(vitals []VitalSign) []VitalSign {
	latest := make(map[VitalType]VitalSign, len(VitalTypes))
	for _, v := range vitals {
		cur, ok := latest[v.Type()]
		if !ok || v.Timestamp.After(cur.Timestamp) {
			latest[v.Type()] = v
		}
	}

	out := make([]VitalSign, 0, len(latest))
	for _, t := range VitalTypes {
		if v, ok := latest[t]; ok {
			out = append(out, v)
		}
	}
	return out
}

func UpcomingMedications(meds []Medication) []Medication {
	out := make([]Medication, 0, dashboardMedications)
	for _, m := range meds {
		if !m.TakenToday {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	if len(out) > dashboardMedications {
		out = out[:dashboardMedications]
	}
	return out
}

// RecentSymptoms expects the journal in its stored newest-first order.
func RecentSymptoms(symptoms []SymptomLog) []SymptomLog {
	n := min(len(symptoms), dashboardSymptoms)
	out := make([]SymptomLog, n)
	copy(out, symptoms[:n])
	return out
}

// UpcomingAppointments keeps Requested and Confirmed appointments, soonest preferred slot first.
func UpcomingAppointments(appts []Appointment) []Appointment {
	out := make([]Appointment, 0, dashboardAppointments)
	for _, a := range appts {
		if a.Status.Upcoming() {
			out = append(out, a)
		}
	}
	// YYYY-MM-DD HH:MM sorts lexically.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PreferredDate+" "+out[i].PreferredTime < out[j].PreferredDate+" "+out[j].PreferredTime
	})
	if len(out) > dashboardAppointments {
		out = out[:dashboardAppointments]
	}
	return out
}
