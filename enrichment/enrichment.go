// Package enrichment adds churn specific steps and schema presets.
// Import it for its side effects to make them available to config files.
package enrichment

import "github.com/churn-project/churn-dataset/transform"

func init() {
	transform.RegisterStepKind(KindChurnInteractions, NewInteractionsStep)
	transform.RegisterStepKind(KindChurnUsage, NewUsageStep)
}
