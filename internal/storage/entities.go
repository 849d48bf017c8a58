package storage

import (
	"encoding/json"
	"fmt"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/value"
)

// AlgorithmInfoEntity is a row of the algorithms table.
type AlgorithmInfoEntity struct {
	Name        string
	Title       string
	Description string
}

// AlgorithmDataEntity is a row of the algorithm_data table. DefaultValue
// holds the JSON encoding of the element's default value.
type AlgorithmDataEntity struct {
	DataID        int64
	AlgorithmName string
	IsInput       bool
	FieldName     string
	Title         string
	Description   string
	DataShape     string
	DataType      string
	DefaultValue  string
}

// AlgorithmEntity is an algorithm with all of its data rows.
type AlgorithmEntity struct {
	Info       AlgorithmInfoEntity
	Parameters []AlgorithmDataEntity
	Outputs    []AlgorithmDataEntity
}

// Rows returns the parameter and output rows together.
func (e *AlgorithmEntity) Rows() []AlgorithmDataEntity {
	rows := make([]AlgorithmDataEntity, 0, len(e.Parameters)+len(e.Outputs))
	rows = append(rows, e.Parameters...)
	return append(rows, e.Outputs...)
}

// ToAlgorithm maps a cached algorithm to a list entry; cached entries are
// always downloaded.
func (i AlgorithmInfoEntity) ToAlgorithm() models.Algorithm {
	return models.Algorithm{Name: i.Name, Title: i.Title, IsDownloaded: true}
}

// ToDetails reassembles the details of a cached algorithm.
func (e *AlgorithmEntity) ToDetails() (models.AlgorithmDetailsResult, error) {
	out := models.AlgorithmDetailsResult{
		Name:        e.Info.Name,
		Title:       e.Info.Title,
		Description: e.Info.Description,
		Parameters:  make([]models.DataElement, 0, len(e.Parameters)),
		Outputs:     make([]models.DataElement, 0, len(e.Outputs)),
	}
	for _, row := range e.Parameters {
		el, err := row.ToDataElement()
		if err != nil {
			return models.AlgorithmDetailsResult{}, err
		}
		out.Parameters = append(out.Parameters, el)
	}
	for _, row := range e.Outputs {
		el, err := row.ToDataElement()
		if err != nil {
			return models.AlgorithmDetailsResult{}, err
		}
		out.Outputs = append(out.Outputs, el)
	}
	return out, nil
}

// ToDataElement decodes a data row.
func (d AlgorithmDataEntity) ToDataElement() (models.DataElement, error) {
	def, err := value.FromJSON([]byte(d.DefaultValue))
	if err != nil {
		return models.DataElement{}, fmt.Errorf("default value of %s.%s: %w", d.AlgorithmName, d.FieldName, err)
	}
	return models.DataElement{
		Name:         d.FieldName,
		Title:        d.Title,
		Description:  d.Description,
		DataShape:    models.DataShape(d.DataShape),
		DataType:     models.DataType(d.DataType),
		DefaultValue: def,
	}, nil
}

// InfoFromDetails maps details to an algorithms row.
func InfoFromDetails(r models.AlgorithmDetailsResult) AlgorithmInfoEntity {
	return AlgorithmInfoEntity{Name: r.Name, Title: r.Title, Description: r.Description}
}

// DataFromDetails maps the parameters and outputs of r to data rows.
func DataFromDetails(r models.AlgorithmDetailsResult) ([]AlgorithmDataEntity, error) {
	rows := make([]AlgorithmDataEntity, 0, len(r.Parameters)+len(r.Outputs))
	for _, p := range r.Parameters {
		row, err := dataFromElement(r.Name, p, true)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	for _, o := range r.Outputs {
		row, err := dataFromElement(r.Name, o, false)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func dataFromElement(algorithm string, e models.DataElement, isInput bool) (AlgorithmDataEntity, error) {
	def, err := json.Marshal(e.DefaultValue)
	if err != nil {
		return AlgorithmDataEntity{}, fmt.Errorf("encode default value of %s.%s: %w", algorithm, e.Name, err)
	}
	return AlgorithmDataEntity{
		AlgorithmName: algorithm,
		IsInput:       isInput,
		FieldName:     e.Name,
		Title:         e.Title,
		Description:   e.Description,
		DataShape:     string(e.DataShape),
		DataType:      string(e.DataType),
		DefaultValue:  string(def),
	}, nil
}
