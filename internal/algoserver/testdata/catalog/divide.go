package main

import "errors"

func Main(a, b float64) (map[string]interface{}, error) {
	if b == 0 {
		return nil, errors.New("division by zero")
	}
	return map[string]interface{}{"quotient": a / b}, nil
}
