package vessel

// SpeedEnvelope is the plausibility contract for a vessel's tonnage class:
// MaxCruiseKn is the sustained cruise ceiling, SpoofImplausibleKn the speed
// above which an implied position jump is treated as spoofed rather than
// sailed. The gap detector and the risk aggregator both score against this
// table; the two must never diverge, so it lives here and nowhere else.
type SpeedEnvelope struct {
	MaxCruiseKn        float64 `json:"max_cruise_kn"`
	SpoofImplausibleKn float64 `json:"spoof_implausible_kn"`
}

// speedClass is one row of the tonnage ladder.
type speedClass struct {
	minDWT   int64
	envelope SpeedEnvelope
}

// speedClasses is ordered largest tonnage first; classification walks it
// top-down and stops at the first row the tonnage reaches.
var speedClasses = []speedClass{
	{minDWT: 200_000, envelope: SpeedEnvelope{MaxCruiseKn: 18.0, SpoofImplausibleKn: 22.0}},
	{minDWT: 120_000, envelope: SpeedEnvelope{MaxCruiseKn: 19.0, SpoofImplausibleKn: 23.0}},
	{minDWT: 80_000, envelope: SpeedEnvelope{MaxCruiseKn: 20.0, SpoofImplausibleKn: 24.0}},
	{minDWT: 60_000, envelope: SpeedEnvelope{MaxCruiseKn: 20.0, SpoofImplausibleKn: 24.0}},
}

// defaultEnvelope covers small vessels and unknown tonnage.
var defaultEnvelope = SpeedEnvelope{MaxCruiseKn: 17.0, SpoofImplausibleKn: 22.0}

// ClassifySpeed maps deadweight tonnage to its speed envelope. Total and
// deterministic: a nil tonnage classifies the same as a small vessel.
func ClassifySpeed(dwt *int64) SpeedEnvelope {
	if dwt == nil {
		return defaultEnvelope
	}

	for _, class := range speedClasses {
		if *dwt >= class.minDWT {
			return class.envelope
		}
	}

	return defaultEnvelope
}
