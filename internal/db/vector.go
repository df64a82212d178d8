package db

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VectorLiteral renders a pgvector input literal, e.g. "[0.1,0.2,...]".
func VectorLiteral(values []float32) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("vector is empty")
	}

	var builder strings.Builder
	builder.Grow(len(values) * 8)
	builder.WriteByte('[')
	for i, value := range values {
		v := float64(value)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("vector has non-finite value at index %d", i)
		}
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(v, 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

// ParseVectorLiteral reads a pgvector text value back into a float slice.
func ParseVectorLiteral(literal string) ([]float32, error) {
	trimmed := strings.TrimSpace(literal)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal")
	}
	inner := trimmed[1 : len(trimmed)-1]
	if strings.TrimSpace(inner) == "" {
		return nil, fmt.Errorf("vector literal is empty")
	}

	parts := strings.Split(inner, ",")
	values := make([]float32, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector element %d: %w", i, err)
		}
		values = append(values, float32(v))
	}
	return values, nil
}
