package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/odelab/odeflow/internal/config"
	"github.com/odelab/odeflow/internal/ode"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Problem   string             `json:"problem"`
	Tableau   string             `json:"tableau"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	T0        float64            `json:"t0"`
	T1        float64            `json:"t1"`
	Dt        float64            `json:"dt"`
	Atol      float64            `json:"atol"`
	Rtol      float64            `json:"rtol"`
	Steps     int                `json:"steps"`
	Rejected  int                `json:"rejected"`
	Evals     int                `json:"evals"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes one run as a directory holding metadata.json and states.csv.
// Without a retained trajectory the CSV holds only the endpoint row.
func (s *Store) Save(cfg *config.Config, result *ode.Result, metricVals map[string]float64) (string, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Problem, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Problem:   cfg.Problem,
		Tableau:   cfg.Solver.Tableau,
		Timestamp: time.Now(),
		Seed:      cfg.Seed,
		T0:        cfg.Solver.T0,
		T1:        cfg.Solver.T1,
		Dt:        cfg.Solver.Dt,
		Atol:      cfg.Solver.Atol,
		Rtol:      cfg.Solver.Rtol,
		Steps:     result.Steps,
		Rejected:  result.Rejected,
		Evals:     result.Evals,
		Metrics:   metricVals,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.States) == 0 {
		return runID, writeRows(w, []float64{result.T}, [][]float64{result.Y.Data()})
	}

	rows := make([][]float64, len(result.States))
	for i, st := range result.States {
		rows[i] = st.Data()
	}
	return runID, writeRows(w, result.Times, rows)
}

func writeRows(w *csv.Writer, times []float64, rows [][]float64) error {
	if len(rows) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range rows[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, row := range rows {
		record := []string{strconv.FormatFloat(times[i], 'g', -1, 64)}
		for _, val := range row {
			record = append(record, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}
	return states, times, nil
}
