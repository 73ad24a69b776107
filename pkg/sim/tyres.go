package sim

import "math/rand"

// tyre compounds
const (
	TyreSoft         = "SOFT"
	TyreMedium       = "MEDIUM"
	TyreHard         = "HARD"
	TyreIntermediate = "INTERMEDIATE"
	TyreWet          = "WET"
)

// base grip per compound
var tyreBase = map[string]float64{
	TyreSoft:         1.00,
	TyreMedium:       0.95,
	TyreHard:         0.90,
	TyreIntermediate: 0.82,
	TyreWet:          0.78,
}

// wear rate multipliers, medium is the baseline
var tyreWearRates = map[string]float64{
	TyreSoft:         2.0,
	TyreMedium:       1.0,
	TyreHard:         0.5,
	TyreIntermediate: 1.1,
	TyreWet:          1.2,
}

// heat generation multipliers, medium is the baseline
var tyreHeatFactors = map[string]float64{
	TyreSoft:         1.2,
	TyreMedium:       1.0,
	TyreHard:         0.8,
	TyreIntermediate: 0.85,
	TyreWet:          0.9,
}

var dryCompounds = []string{TyreSoft, TyreMedium, TyreHard}

// base pit lane time in seconds
const pitTimeBase = 22.0

func tyreBaseGrip(tyre string) float64 {
	if v, ok := tyreBase[tyre]; ok {
		return v
	}
	return tyreBase[TyreMedium]
}

func tyreWearRate(tyre string) float64 {
	if v, ok := tyreWearRates[tyre]; ok {
		return v
	}
	return 1.0
}

func tyreHeatFactor(tyre string) float64 {
	if v, ok := tyreHeatFactors[tyre]; ok {
		return v
	}
	return 1.0
}

// pitstopTime generates a variable pit lane time. Normal stops vary by
// up to one second (sigma 0.5), about 7.5% of stops go bad and vary by
// up to two seconds.
func pitstopTime(rnd *rand.Rand) float64 {
	if rnd.Float64() < 0.075 {
		return pitTimeBase + (rnd.Float64()*4.0 - 2.0)
	}
	variation := rnd.NormFloat64() * 0.5
	variation = max(-1.0, min(1.0, variation))
	return pitTimeBase + variation
}

// compound choice after a stop, depending on rain level
func pickTyre(rnd *rand.Rand, rain float64) string {
	switch {
	case rain > 0.6:
		return TyreWet
	case rain > 0.3:
		return TyreIntermediate
	default:
		return dryCompounds[rnd.Intn(len(dryCompounds))]
	}
}
