package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/cascadedrop/internal/dynamo"
)

type ExportSample struct {
	Time     float64    `json:"time"`
	Body     string     `json:"body"`
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"`
	Velocity [3]float64 `json:"velocity"`
	Angular  [3]float64 `json:"angular_velocity"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

func newExportData(meta RunMetadata, samples []dynamo.Sample) ExportData {
	data := ExportData{Run: meta, Samples: make([]ExportSample, len(samples))}
	for i, s := range samples {
		q := s.State.Pose.Rot
		data.Samples[i] = ExportSample{
			Time:     s.Time,
			Body:     s.Body,
			Position: s.State.Pose.Pos,
			Rotation: [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
			Velocity: s.State.Twist.V,
			Angular:  s.State.Twist.W,
		}
	}
	return data
}

// ExportJSON writes a stored run as one JSON document to path, or to stdout
// when path is empty.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return ErrNoSamples
	}

	if path == "" {
		return WriteJSON(os.Stdout, *meta, samples)
	}
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, *meta, samples)
	})
}

// ExportCSV copies the samples of a stored run to path.
func (s *Store) ExportCSV(runID, path string) error {
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return ErrNoSamples
	}
	return writeFile(path, func(w io.Writer) error {
		return WriteSamplesCSV(w, samples)
	})
}

func WriteJSON(w io.Writer, meta RunMetadata, samples []dynamo.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, samples))
}

// BodyHeights extracts the time series of one body's vertical position.
func BodyHeights(samples []dynamo.Sample, body string) (times, heights []float64) {
	for _, s := range samples {
		if s.Body != body {
			continue
		}
		times = append(times, s.Time)
		heights = append(heights, s.State.Pose.Pos[1])
	}
	return times, heights
}
