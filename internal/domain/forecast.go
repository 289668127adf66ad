package domain

// Forecast rule thresholds. The model is a fixed additive threshold rule;
// see the package documentation for the full description.
const (
	baseProbability = 30
	maxProbability  = 95

	rainfallThreshold     = 20.0 // mm/h mean over the forecast window
	rainfallWeight        = 25
	displacementThreshold = 3.0 // mm max over the forecast window
	displacementWeight    = 20
	highZoneThreshold     = 2 // strictly more than this many high-risk zones
	highZoneWeight        = 15

	forecastConfidence = 85
	forecastTimeframe  = "7 days"
)

// Contributing-factor strings, emitted in rule order.
const (
	FactorHeavyRainfall      = "Heavy rainfall detected"
	FactorGroundDisplacement = "Significant ground displacement"
	FactorHighRiskZones      = "Multiple high-risk zones active"
)

// ScoreForecast runs the threshold rule engine over the aggregated window
// statistics and the mine's high-risk zone count. The returned forecast has
// no identity or mine attached; the operation layer assigns those before
// persisting. Deterministic: equal inputs produce equal output.
func ScoreForecast(stats WindowStats, highRiskZones int) Forecast {
	probability := baseProbability
	factors := FactorList{}

	// Rainfall and displacement rules require at least one reading in the
	// window; an empty window must not be read as "zero rainfall observed".
	if stats.Count > 0 && stats.MeanRainfall > rainfallThreshold {
		probability += rainfallWeight
		factors = append(factors, FactorHeavyRainfall)
	}
	if stats.Count > 0 && stats.MaxDisplacement > displacementThreshold {
		probability += displacementWeight
		factors = append(factors, FactorGroundDisplacement)
	}
	if highRiskZones > highZoneThreshold {
		probability += highZoneWeight
		factors = append(factors, FactorHighRiskZones)
	}

	if probability > maxProbability {
		probability = maxProbability
	}

	return Forecast{
		Probability: probability,
		Confidence:  forecastConfidence,
		Timeframe:   forecastTimeframe,
		Factors:     factors,
		CreatedAt:   clock.Now(),
	}
}
