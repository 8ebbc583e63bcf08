package constants

const (
	AppName = "churn-dataset"

	EnvLogLevel = "CHURN_LOG_LEVEL"
	EnvLogDir   = "CHURN_LOG_DIR"

	DefaultLogLevel = "info"
)

const (
	// DefaultSqliteTable is the table read from and written to in sqlite files
	DefaultSqliteTable = "dataset"
	// SqliteSchemaTable holds the JSON encoded row schema in sqlite files
	SqliteSchemaTable = "_schema"

	// SchemaSidecarSuffix is appended to a text output path to name its schema sidecar
	SchemaSidecarSuffix = ".schema.json"

	DefaultParallelism = 4
	DefaultNanSentinel = "NaN"
	DefaultSeed        = 42
	DefaultUsageMonths = 6

	// FitRecordVersion is the format version written into fit record files
	FitRecordVersion = 1
)

// DefaultMissingValues are the raw text tokens loaded as null
var DefaultMissingValues = []string{"", "NA", "NaN", "null"}
