package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/config"
	"github.com/san-kum/cascadedrop/internal/dynamo"
	"github.com/san-kum/cascadedrop/internal/sim"
)

// DefaultDir is where runs are kept unless told otherwise.
const DefaultDir = ".cascadedrop"

var ErrNoSamples = errors.New("run has no samples")

var sampleHeader = []string{
	"time", "body",
	"px", "py", "pz",
	"qw", "qx", "qy", "qz",
	"vx", "vy", "vz",
	"wx", "wy", "wz",
}

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
	ID         string             `json:"id"`
	Scene      string             `json:"scene"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Duration   float64            `json:"duration"`
	Solver     string             `json:"solver"`
	Integrator string             `json:"integrator"`
	Density    float64            `json:"density"`
	Reason     string             `json:"reason"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and samples.csv under a fresh run directory.
func (s *Store) Save(scene string, cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", scene, now.UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)
	for i := 1; ; i++ {
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", scene, now.UnixMilli(), i)
		runDir = filepath.Join(s.baseDir, runID)
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scene:      scene,
		Timestamp:  now,
		Dt:         cfg.Timestep,
		Steps:      result.StepsTaken,
		Duration:   result.Time,
		Solver:     cfg.Solver.Type,
		Integrator: cfg.Integrator,
		Density:    cfg.Density,
		Reason:     string(result.Reason),
		Metrics:    result.Metrics,
	}

	err := writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", err
	}
	err = writeFile(filepath.Join(runDir, "samples.csv"), func(w io.Writer) error {
		return WriteSamplesCSV(w, result.Samples)
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

// writeFile creates path and hands it to write. A failed close is reported
// since buffered data may not have reached the disk.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeAndClose(f, write)
}

func writeAndClose(f io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()
	return write(f)
}

// List returns all stored runs, oldest first.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs in %s", s.baseDir)
	}
	return &runs[len(runs)-1], nil
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

func (s *Store) LoadSamples(runID string) ([]dynamo.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadSamplesCSV(file)
}

func WriteSamplesCSV(out io.Writer, samples []dynamo.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range samples {
		p, q, v, av := s.State.Pose.Pos, s.State.Pose.Rot, s.State.Twist.V, s.State.Twist.W
		row := []string{
			f(s.Time), s.Body,
			f(p[0]), f(p[1]), f(p[2]),
			f(q.W), f(q.V[0]), f(q.V[1]), f(q.V[2]),
			f(v[0]), f(v[1]), f(v[2]),
			f(av[0]), f(av[1]), f(av[2]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadSamplesCSV parses the format written by WriteSamplesCSV. Malformed
// rows are skipped.
func ReadSamplesCSV(in io.Reader) ([]dynamo.Sample, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]dynamo.Sample, 0, len(records))
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) != len(sampleHeader) {
			continue
		}
		// Every column but the body name is numeric.
		var vals [14]float64
		ok := true
		for j, col := 0, 0; col < len(rec); col++ {
			if col == 1 {
				continue
			}
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
			j++
		}
		if !ok {
			continue
		}
		samples = append(samples, dynamo.Sample{
			Body: rec[1],
			Time: vals[0],
			State: dynamo.State{
				Pose: dynamo.Pose{
					Pos: mgl64.Vec3{vals[1], vals[2], vals[3]},
					Rot: mgl64.Quat{W: vals[4], V: mgl64.Vec3{vals[5], vals[6], vals[7]}},
				},
				Twist: dynamo.Twist{
					V: mgl64.Vec3{vals[8], vals[9], vals[10]},
					W: mgl64.Vec3{vals[11], vals[12], vals[13]},
				},
			},
		})
	}
	return samples, nil
}
