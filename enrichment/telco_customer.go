package enrichment

import (
	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/schema"
)

// TelcoCustomer is one row of the raw telco customer churn dataset.
// Columns keep the published names. Service columns hold Yes/No (or "No internet service") text as published.
type TelcoCustomer struct {
	CustomerID       string  `json:"customerID" parquet:"name=customerID,required"`
	Gender           string  `json:"gender"`
	SeniorCitizen    int64   `json:"SeniorCitizen"`
	Partner          string  `json:"Partner"`
	Dependents       string  `json:"Dependents"`
	Tenure           int64   `json:"tenure"`
	PhoneService     string  `json:"PhoneService"`
	MultipleLines    string  `json:"MultipleLines"`
	InternetService  string  `json:"InternetService"`
	OnlineSecurity   string  `json:"OnlineSecurity"`
	OnlineBackup     string  `json:"OnlineBackup"`
	DeviceProtection string  `json:"DeviceProtection"`
	TechSupport      string  `json:"TechSupport"`
	StreamingTV      string  `json:"StreamingTV"`
	StreamingMovies  string  `json:"StreamingMovies"`
	Contract         string  `json:"Contract"`
	PaperlessBilling string  `json:"PaperlessBilling"`
	PaymentMethod    string  `json:"PaymentMethod"`
	MonthlyCharges   float64 `json:"MonthlyCharges"`
	// blank for customers in their first month
	TotalCharges *float64 `json:"TotalCharges"`
	Churn        string   `json:"Churn" parquet:"name=Churn,required"`
}

func init() {
	schema.RegisterPreset(constants.ChurnTelcoPresetName, TelcoCustomer{})
}
