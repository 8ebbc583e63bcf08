package main

import (
	"os"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/logging"
	// register the enrichment step kinds and the telco preset
	_ "github.com/churn-project/churn-dataset/enrichment"
)

func main() {
	closeLog := logging.Initialize(constants.AppName)
	code := Execute()
	// os.Exit skips deferred calls
	closeLog()
	os.Exit(code)
}
