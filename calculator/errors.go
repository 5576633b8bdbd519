package calculator

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLength   = errors.New("calculator: plate side length must be positive")
	ErrInvalidCells    = errors.New("calculator: cell count must be at least 1")
	ErrInvalidConstant = errors.New("calculator: electric constant must be positive and finite")
	ErrInvalidDistance = errors.New("calculator: plate distance out of range")
	ErrInvalidSamples  = errors.New("calculator: sample count out of range")
	ErrInvalidWorkers  = errors.New("calculator: worker count must be at least 1")

	ErrShapeMismatch  = errors.New("calculator: coordinate slices cannot be broadcast together")
	ErrNoConstituents = errors.New("calculator: composite field needs at least one plate")
	ErrMixedConstant  = errors.New("calculator: constituents built with different electric constants")
)

// ConfigurationError 构建时的参数错误，构建失败时不返回任何对象
type ConfigurationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s = %v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(field string, value interface{}, err error) error {
	return &ConfigurationError{Field: field, Value: value, Err: err}
}
