package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionLookup_IsValid(t *testing.T) {
	lookup := NewExtensionLookup([]string{".csv", ".jsonl", ".parquet"})
	tests := []struct {
		path string
		want bool
	}{
		{path: "data/raw/telco.csv", want: true},
		{path: "data/raw/TELCO.CSV", want: true},
		{path: "data/raw/telco.csv.gz", want: true},
		{path: "data/raw/telco.jsonl.gz", want: true},
		{path: "data/raw/telco.xlsx", want: false},
		{path: "data/raw/telco.gz", want: false},
		{path: "data/raw/README", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equalf(t, tt.want, lookup.IsValid(tt.path), "IsValid(%v)", tt.path)
		})
	}

	assert.True(t, NewExtensionLookup(nil).IsValid("anything.bin"))
}

func TestDataExtension(t *testing.T) {
	assert.Equal(t, ".csv", DataExtension("out/churn.csv.gz"))
	assert.Equal(t, ".parquet", DataExtension("out/churn.parquet"))
	assert.True(t, IsCompressed("out/churn.tsv.GZ"))
	assert.False(t, IsCompressed("out/churn.tsv"))
}
