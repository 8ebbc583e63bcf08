package loader

import (
	"strconv"
	"strings"

	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

// typeInference narrows the type of a text column as values are observed.
// A column is BIGINT if every value parses as an integer, else DOUBLE if every value parses as a float,
// else BOOLEAN if every value is true or false, else VARCHAR. A column with no values is VARCHAR.
type typeInference struct {
	seen    bool
	bigint  bool
	double  bool
	boolean bool
}

func newTypeInference() *typeInference {
	return &typeInference{bigint: true, double: true, boolean: true}
}

func (t *typeInference) observe(raw string) {
	t.seen = true
	trimmed := strings.TrimSpace(raw)
	if t.bigint {
		if _, err := strconv.ParseInt(trimmed, 10, 64); err != nil {
			t.bigint = false
		}
	}
	if t.double {
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			t.double = false
		}
	}
	if t.boolean {
		if _, ok := table.ParseBool(raw); !ok {
			t.boolean = false
		}
	}
}

func (t *typeInference) columnType() string {
	switch {
	case !t.seen:
		return schema.TypeVarchar
	case t.bigint:
		return schema.TypeBigint
	case t.double:
		return schema.TypeDouble
	case t.boolean:
		return schema.TypeBoolean
	}
	return schema.TypeVarchar
}
