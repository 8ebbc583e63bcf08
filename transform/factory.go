package transform

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/error_types"
	"golang.org/x/exp/maps"
)

// StepOptions is implemented by the kind specific option structs decoded from a step block
type StepOptions interface {
	Validate() error
}

type stepCtor func(cfg *config.StepConfig) (Step, error)

var (
	stepFactory   = make(map[string]stepCtor)
	stepFactoryMu sync.RWMutex
)

// RegisterStepKind registers a step kind. The options of a step block of this kind are decoded into
// a new T, validated, and passed to ctor.
func RegisterStepKind[T StepOptions](kind string, ctor func(name string, opts T) (Step, error)) {
	stepFactoryMu.Lock()
	defer stepFactoryMu.Unlock()

	stepFactory[kind] = func(cfg *config.StepConfig) (Step, error) {
		opts := newOptions[T]()
		if err := cfg.DecodeOptions(opts); err != nil {
			return nil, error_types.NewInvalidStepConfigError(cfg.Name, "", err.Error())
		}
		if err := opts.Validate(); err != nil {
			return nil, error_types.NewInvalidStepConfigError(cfg.Name, "", err.Error())
		}
		return ctor(cfg.Name, opts)
	}
}

// newOptions returns a new T, allocating the struct T points to
func newOptions[T StepOptions]() T {
	var res T
	if t := reflect.TypeOf(res); t != nil && t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()).Interface().(T)
	}
	return res
}

// NewStep builds the step described by a step block
func NewStep(cfg *config.StepConfig) (Step, error) {
	stepFactoryMu.RLock()
	ctor, ok := stepFactory[cfg.Kind]
	stepFactoryMu.RUnlock()
	if !ok {
		return nil, error_types.NewInvalidStepConfigError(cfg.Name, "", fmt.Sprintf("unknown step kind '%s' - registered kinds: %v", cfg.Kind, StepKinds()))
	}
	return ctor(cfg)
}

// StepKinds returns the registered step kinds, sorted
func StepKinds() []string {
	stepFactoryMu.RLock()
	defer stepFactoryMu.RUnlock()
	res := maps.Keys(stepFactory)
	slices.Sort(res)
	return res
}

func init() {
	RegisterStepKind(KindCoerce, NewCoerceStep)
	RegisterStepKind(KindImpute, NewImputeStep)
	RegisterStepKind(KindDerive, NewDeriveStep)
	RegisterStepKind(KindEncode, NewEncodeStep)
	RegisterStepKind(KindMap, NewMapStep)
	RegisterStepKind(KindDrop, NewDropStep)
	RegisterStepKind(KindScale, NewScaleStep)
}
