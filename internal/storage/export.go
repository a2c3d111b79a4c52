package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/odelab/odeflow/internal/ode"
)

type ExportData struct {
	Problem  string             `json:"problem"`
	Tableau  string             `json:"tableau"`
	T0       float64            `json:"t0"`
	T1       float64            `json:"t1"`
	Dt       float64            `json:"dt"`
	Steps    int                `json:"steps"`
	Rejected int                `json:"rejected"`
	Evals    int                `json:"evals"`
	Times    []float64          `json:"times"`
	States   [][]float64        `json:"states"`
	Final    []float64          `json:"final"`
	Metrics  map[string]float64 `json:"metrics"`
}

func buildExport(problem, tableau string, t0, t1, dt float64, result *ode.Result, metricVals map[string]float64) ExportData {
	data := ExportData{
		Problem:  problem,
		Tableau:  tableau,
		T0:       t0,
		T1:       t1,
		Dt:       dt,
		Steps:    result.Steps,
		Rejected: result.Rejected,
		Evals:    result.Evals,
		Times:    result.Times,
		States:   make([][]float64, len(result.States)),
		Final:    result.Y.Data(),
		Metrics:  metricVals,
	}
	for i, s := range result.States {
		data.States[i] = s.Data()
	}
	return data
}

func ExportJSON(w io.Writer, problem, tableau string, t0, t1, dt float64, result *ode.Result, metricVals map[string]float64) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildExport(problem, tableau, t0, t1, dt, result, metricVals))
}

func ExportJSONFile(path, problem, tableau string, t0, t1, dt float64, result *ode.Result, metricVals map[string]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, problem, tableau, t0, t1, dt, result, metricVals)
}

// ExportCSV writes the trajectory (or the endpoint row when no trajectory
// was retained) in the same layout as the per-run states.csv.
func ExportCSV(w io.Writer, result *ode.Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if len(result.States) == 0 {
		return writeRows(cw, []float64{result.T}, [][]float64{result.Y.Data()})
	}

	rows := make([][]float64, len(result.States))
	for i, st := range result.States {
		rows[i] = st.Data()
	}
	return writeRows(cw, result.Times, rows)
}

func ExportCSVFile(path string, result *ode.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportCSV(file, result)
}
