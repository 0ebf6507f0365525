package gridcore

import (
	"math"
	"strings"
)

// functionArity describes how many arguments a built-in accepts. max is -1
// for variadic functions; ranges marks functions that take range arguments
type functionArity struct {
	min    int
	max    int
	ranges bool
}

// builtinArity lists every function the formula language knows about. the
// parser rejects calls to anything else and checks argument counts here
var builtinArity = map[string]functionArity{
	"SUM":     {min: 1, max: -1, ranges: true},
	"AVERAGE": {min: 1, max: -1, ranges: true},
	"MIN":     {min: 1, max: -1, ranges: true},
	"MAX":     {min: 1, max: -1, ranges: true},
	"ABS":     {min: 1, max: 1},
	"ROUND":   {min: 1, max: 2},
	"SQRT":    {min: 1, max: 1},
	"POWER":   {min: 2, max: 2},
	"MOD":     {min: 2, max: 2},
}

// BuiltInFunctions contains all spreadsheet built-in functions. arguments
// arrive already evaluated: a float64 per scalar argument and a []float64
// per range argument
type BuiltInFunctions struct{}

var builtins = &BuiltInFunctions{}

// Call invokes a built-in function by name with the given arguments
func (bf *BuiltInFunctions) Call(name string, args ...any) (float64, error) {
	switch strings.ToUpper(name) {
	case "SUM":
		return bf.SUM(args...)
	case "AVERAGE":
		return bf.AVERAGE(args...)
	case "MIN":
		return bf.MIN(args...)
	case "MAX":
		return bf.MAX(args...)
	case "ABS":
		return bf.ABS(args...)
	case "ROUND":
		return bf.ROUND(args...)
	case "SQRT":
		return bf.SQRT(args...)
	case "POWER":
		return bf.POWER(args...)
	case "MOD":
		return bf.MOD(args...)
	default:
		return 0, NewFormulaError(ErrorCategoryValue)
	}
}

// flatten expands range arguments into a single list of numbers
func flatten(args []any) ([]float64, error) {
	nums := make([]float64, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case float64:
			nums = append(nums, v)
		case []float64:
			nums = append(nums, v...)
		default:
			return nil, NewFormulaError(ErrorCategoryValue)
		}
	}
	return nums, nil
}

// scalars returns the arguments as plain numbers, rejecting ranges
func scalars(args []any, want int) ([]float64, error) {
	if len(args) != want {
		return nil, NewFormulaError(ErrorCategoryValue)
	}
	nums := make([]float64, len(args))
	for i, arg := range args {
		num, ok := arg.(float64)
		if !ok {
			return nil, NewFormulaError(ErrorCategoryValue)
		}
		nums[i] = num
	}
	return nums, nil
}

func (bf *BuiltInFunctions) SUM(args ...any) (float64, error) {
	nums, err := flatten(args)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, num := range nums {
		sum += num
	}
	return sum, nil
}

func (bf *BuiltInFunctions) AVERAGE(args ...any) (float64, error) {
	nums, err := flatten(args)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, NewFormulaError(ErrorCategoryArithmetic)
	}
	sum := 0.0
	for _, num := range nums {
		sum += num
	}
	return sum / float64(len(nums)), nil
}

func (bf *BuiltInFunctions) MIN(args ...any) (float64, error) {
	nums, err := flatten(args)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, nil
	}
	result := nums[0]
	for _, num := range nums[1:] {
		result = min(result, num)
	}
	return result, nil
}

func (bf *BuiltInFunctions) MAX(args ...any) (float64, error) {
	nums, err := flatten(args)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, nil
	}
	result := nums[0]
	for _, num := range nums[1:] {
		result = max(result, num)
	}
	return result, nil
}

func (bf *BuiltInFunctions) ABS(args ...any) (float64, error) {
	nums, err := scalars(args, 1)
	if err != nil {
		return 0, err
	}
	return math.Abs(nums[0]), nil
}

func (bf *BuiltInFunctions) ROUND(args ...any) (float64, error) {
	if len(args) == 1 {
		args = append(args, 0.0)
	}
	nums, err := scalars(args, 2)
	if err != nil {
		return 0, err
	}

	multiplier := math.Pow(10, math.Trunc(nums[1]))
	return math.Round(nums[0]*multiplier) / multiplier, nil
}

func (bf *BuiltInFunctions) SQRT(args ...any) (float64, error) {
	nums, err := scalars(args, 1)
	if err != nil {
		return 0, err
	}
	if nums[0] < 0 {
		return 0, NewFormulaError(ErrorCategoryArithmetic)
	}
	return math.Sqrt(nums[0]), nil
}

func (bf *BuiltInFunctions) POWER(args ...any) (float64, error) {
	nums, err := scalars(args, 2)
	if err != nil {
		return 0, err
	}
	return math.Pow(nums[0], nums[1]), nil
}

// MOD follows the sign of the divisor
func (bf *BuiltInFunctions) MOD(args ...any) (float64, error) {
	nums, err := scalars(args, 2)
	if err != nil {
		return 0, err
	}
	dividend, divisor := nums[0], nums[1]
	if divisor == 0 {
		return 0, NewFormulaError(ErrorCategoryArithmetic)
	}
	return dividend - divisor*math.Floor(dividend/divisor), nil
}
