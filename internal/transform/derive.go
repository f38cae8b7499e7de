package transform

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"csvwarehouse/internal/records"
)

// Op names a derived-column operation.
type Op string

const (
	Multiply Op = "multiply"
	Add      Op = "add"
	Concat   Op = "concat"
)

// Derive computes Name from Inputs. Any nil input yields nil.
type Derive struct {
	Name      string   `yaml:"name"`
	Op        Op       `yaml:"op"`
	Inputs    []string `yaml:"inputs"`
	Separator string   `yaml:"separator,omitempty"`
}

func (d Derive) eval(r records.Record) (any, error) {
	if len(d.Inputs) == 0 {
		return nil, fmt.Errorf("derive %s: no inputs", d.Name)
	}
	vals := make([]any, len(d.Inputs))
	for i, in := range d.Inputs {
		v := r[in]
		if v == nil {
			return nil, nil
		}
		vals[i] = v
	}
	switch d.Op {
	case Concat:
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = records.Format(v)
		}
		return strings.Join(parts, d.Separator), nil
	case Multiply, Add:
		return arith(d, vals)
	default:
		return nil, fmt.Errorf("derive %s: unknown op %q", d.Name, d.Op)
	}
}

// arith folds vals with the widest numeric type present:
// int64 < float64 < decimal.
func arith(d Derive, vals []any) (any, error) {
	widest := 0
	for i, v := range vals {
		switch v.(type) {
		case int64:
		case float64:
			widest = max(widest, 1)
		case decimal.Decimal:
			widest = 2
		default:
			return nil, fmt.Errorf("derive %s: input %s is %T (%v), not numeric", d.Name, d.Inputs[i], v, v)
		}
	}
	switch widest {
	case 0:
		acc := vals[0].(int64)
		for _, v := range vals[1:] {
			if d.Op == Multiply {
				acc *= v.(int64)
			} else {
				acc += v.(int64)
			}
		}
		return acc, nil
	case 1:
		acc := toFloat(vals[0])
		for _, v := range vals[1:] {
			if d.Op == Multiply {
				acc *= toFloat(v)
			} else {
				acc += toFloat(v)
			}
		}
		return acc, nil
	default:
		acc := toDecimal(vals[0])
		for _, v := range vals[1:] {
			if d.Op == Multiply {
				acc = acc.Mul(toDecimal(v))
			} else {
				acc = acc.Add(toDecimal(v))
			}
		}
		return acc, nil
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

func toDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case int64:
		return decimal.NewFromInt(x)
	case float64:
		return decimal.NewFromFloat(x)
	case decimal.Decimal:
		return x
	}
	return decimal.Zero
}
