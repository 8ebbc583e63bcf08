package constants

// columns added by the churn enrichment steps
const (
	ChurnNumLogins       = "num_logins_last_30d"
	ChurnSupportTickets  = "support_tickets_last_90d"
	ChurnLastInteraction = "last_interaction_days_ago"
	ChurnTrendUsage      = "trend_usage"
	ChurnStdUsage        = "std_usage"
	ChurnAvgUsageLast3m  = "avg_usage_last_3m"
	ChurnDefaultLabel    = "Churn"
	ChurnTelcoPresetName = "telco_customer"
)
