package domain

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// Operator - оператор выражения фильтра
type Operator string

const (
	OpAll      Operator = "all"
	OpEqual    Operator = "=="
	OpNotEqual Operator = "!="
	OpAny      Operator = "any"
)

// Expression - декларативный предикат над свойствами объекта.
// Сериализуется в формат выражений стиля карты.
type Expression struct {
	Op       Operator
	Property string
	Value    string
	Args     []Expression
}

// Eq - свойство равно значению
func Eq(property, value string) Expression {
	return Expression{Op: OpEqual, Property: property, Value: value}
}

// Ne - свойство не равно значению
func Ne(property, value string) Expression {
	return Expression{Op: OpNotEqual, Property: property, Value: value}
}

// All - конъюнкция. Без аргументов совпадает со всем.
func All(args ...Expression) Expression {
	cp := make([]Expression, len(args))
	copy(cp, args)
	return Expression{Op: OpAll, Args: cp}
}

// Any - дизъюнкция. Без аргументов не совпадает ни с чем.
func Any(args ...Expression) Expression {
	cp := make([]Expression, len(args))
	copy(cp, args)
	return Expression{Op: OpAny, Args: cp}
}

// IsZero - выражение не задано (фильтр снят)
func (e Expression) IsZero() bool {
	return e.Op == ""
}

// Match вычисляет предикат. Пустое выражение совпадает со всем.
func (e Expression) Match(props geojson.Properties) bool {
	switch e.Op {
	case "":
		return true
	case OpEqual:
		return PropertyString(props, e.Property) == e.Value
	case OpNotEqual:
		return PropertyString(props, e.Property) != e.Value
	case OpAll:
		for _, a := range e.Args {
			if !a.Match(props) {
				return false
			}
		}
		return true
	case OpAny:
		for _, a := range e.Args {
			if a.Match(props) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// MarshalJSON: ["==", ["get", "MUN"], "NEWARK CITY"], ["all", ...], null
func (e Expression) MarshalJSON() ([]byte, error) {
	v, err := e.toArray()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (e Expression) toArray() (interface{}, error) {
	switch e.Op {
	case "":
		return nil, nil
	case OpEqual, OpNotEqual:
		return []interface{}{string(e.Op), []interface{}{"get", e.Property}, e.Value}, nil
	case OpAll, OpAny:
		out := []interface{}{string(e.Op)}
		for _, a := range e.Args {
			v, err := a.toArray()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown expression operator %q", e.Op)
	}
}

func (e Expression) String() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid %s>", e.Op)
	}
	return string(b)
}
