package transform

// built in step kinds
const (
	KindCoerce = "coerce"
	KindImpute = "impute"
	KindDerive = "derive"
	KindEncode = "encode"
	KindMap    = "map"
	KindDrop   = "drop"
	KindScale  = "scale"
)

// impute strategies
const (
	StrategyDrop     = "drop"
	StrategyConstant = "constant"
	StrategyMean     = "mean"
	StrategyMedian   = "median"
	StrategyMode     = "mode"
)

// scale methods
const (
	ScaleStandard = "standard"
	ScaleMinMax   = "minmax"
)

// encode handling of categories unseen when fitting
const (
	UnknownError  = "error"
	UnknownIgnore = "ignore"

	// UnknownCategoryCode is the code given to unseen categories when unknown = "ignore"
	UnknownCategoryCode int64 = -1
)
