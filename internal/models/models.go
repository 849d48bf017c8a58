package models

import "github.com/wagnerlima/algolab/internal/value"

// DataShape is the structural shape of a parameter or output value.
type DataShape string

const (
	ShapeScalar DataShape = "scalar"
	ShapeList   DataShape = "list"
	ShapeMatrix DataShape = "matrix"
)

// DataType is the element type of a parameter or output value.
type DataType string

const (
	TypeInt    DataType = "int"
	TypeFloat  DataType = "float"
	TypeString DataType = "string"
	TypeBool   DataType = "bool"
)

// Algorithm is a summary entry in the algorithm list.
type Algorithm struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	IsDownloaded bool   `json:"isDownloaded"`
}

// DataElement describes one parameter or output of an algorithm. Value holds
// the user's parsed input for parameters and the returned value for outputs.
type DataElement struct {
	Name         string      `json:"name"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	DataShape    DataShape   `json:"data_shape"`
	DataType     DataType    `json:"data_type"`
	DefaultValue value.Value `json:"default_value"`
	Value        value.Value `json:"value,omitzero"`
	Optional     bool        `json:"optional,omitempty"`
}

// ToDataValue projects the element to its name and current value, falling
// back to the default value when no value is set.
func (e DataElement) ToDataValue() DataValue {
	v := e.Value
	if !v.IsSet() {
		v = e.DefaultValue
	}
	return DataValue{Name: e.Name, Value: v}
}

// DataValue is the wire and interpreter projection of a DataElement.
type DataValue struct {
	Name  string      `json:"name"`
	Value value.Value `json:"value"`
}

// DataValueList is the request body for remote execution.
type DataValueList struct {
	Parameters []DataValue `json:"parameters"`
}

// AlgorithmDetailsResult is the full description of an algorithm.
type AlgorithmDetailsResult struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Parameters  []DataElement `json:"parameters"`
	Outputs     []DataElement `json:"outputs"`
}

// Clone returns a copy whose element slices can be mutated independently.
func (r AlgorithmDetailsResult) Clone() AlgorithmDetailsResult {
	r.Parameters = append([]DataElement(nil), r.Parameters...)
	r.Outputs = append([]DataElement(nil), r.Outputs...)
	return r
}

// AlgorithmList is the response of the list endpoint.
type AlgorithmList struct {
	Algorithms []Algorithm `json:"algorithms"`
}

// AlgorithmDetails is the response of the details endpoint.
type AlgorithmDetails struct {
	Result *AlgorithmDetailsResult `json:"result"`
	Errors *string                 `json:"errors"`
}

// AlgorithmOutputs wraps the outputs of an execution.
type AlgorithmOutputs struct {
	Outputs []DataValue `json:"outputs"`
}

// AlgorithmResponse is the response of the execution endpoint.
type AlgorithmResponse struct {
	Result *AlgorithmOutputs `json:"result"`
	Errors *string           `json:"errors"`
}

// DetailsOrEmpty returns the result, or an empty one if the server sent none.
func (d AlgorithmDetails) DetailsOrEmpty() AlgorithmDetailsResult {
	if d.Result == nil {
		return AlgorithmDetailsResult{Parameters: []DataElement{}, Outputs: []DataElement{}}
	}
	return *d.Result
}

// ErrorText returns the server error message, or "" if none.
func (d AlgorithmDetails) ErrorText() string { return deref(d.Errors) }

// OutputsOrEmpty returns the outputs, or an empty list if the server sent none.
func (r AlgorithmResponse) OutputsOrEmpty() []DataValue {
	if r.Result == nil || r.Result.Outputs == nil {
		return []DataValue{}
	}
	return r.Result.Outputs
}

// ErrorText returns the server error message, or "" if none.
func (r AlgorithmResponse) ErrorText() string { return deref(r.Errors) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
