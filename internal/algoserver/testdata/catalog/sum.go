package main

func Main(xs []int, scale float64) map[string]interface{} {
	total := 0
	for _, x := range xs {
		total += x
	}
	return map[string]interface{}{"total": float64(total) * scale, "count": len(xs)}
}
