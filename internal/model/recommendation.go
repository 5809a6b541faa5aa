package model

// Verdict labels whether a candidate is worth acting on this morning.
type Verdict string

const (
	VerdictSnipe    Verdict = "狙撃"
	VerdictCautious Verdict = "慎重"
)

// Recommendation is one row of the final morning report.
type Recommendation struct {
	Code            string
	Name            string
	RelativeVolume  float64
	MA5             float64
	MA5Deviation    float64 // percent distance of the last close from MA5
	SupplyScore     int
	TargetPrice     float64
	TargetAvailable bool
	Verdict         Verdict
}
