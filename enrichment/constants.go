package enrichment

// step kinds
const (
	KindChurnInteractions = "churn_interactions"
	KindChurnUsage        = "churn_usage"
)

// interaction feature distributions, conditioned on the churn label
const (
	loginsLambdaChurned     = 2.0
	loginsLambdaRetained    = 10.0
	ticketsLambdaChurned    = 3.0
	ticketsLambdaRetained   = 1.0
	lastInteractionChurned  = 15 // days ago, drawn from [15, 60)
	lastInteractionRetained = 1  // days ago, drawn from [1, 15)
	lastInteractionMax      = 60
)

// usage series
const (
	usageLambda = 10.0
	// a churned customer's usage decays linearly to this fraction over the series
	usageChurnedDecay = 0.3
	// number of trailing months averaged into avg_usage_last_3m
	usageRecentMonths = 3
	// prefix of the per month columns added when keep_series is set
	usageSeriesPrefix = "usage_month_"
)
