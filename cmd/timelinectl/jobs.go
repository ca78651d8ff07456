package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"gopkg.in/yaml.v3"
)

type jobFile struct {
	Jobs []types.ScheduledJob `yaml:"jobs"`
}

var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// loadJobs reads a job list from YAML ({jobs: [...]}) or CSV with a header
// row naming id, lane, start and end columns.
func loadJobs(path string) ([]types.ScheduledJob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening job file: %w", err)
	}
	defer f.Close()

	var jobs []types.ScheduledJob
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		jobs, err = parseCSV(f)
	default:
		jobs, err = parseYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	seen := make(map[string]bool, len(jobs))
	for i, job := range jobs {
		if job.ID == "" {
			return nil, fmt.Errorf("%s: job %d has no id", path, i+1)
		}
		if seen[job.ID] {
			return nil, fmt.Errorf("%s: duplicate job id %s", path, job.ID)
		}
		seen[job.ID] = true
		jobs[i] = job.Normalize()
	}
	return jobs, nil
}

func parseYAML(r io.Reader) ([]types.ScheduledJob, error) {
	var file jobFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}
	return file.Jobs, nil
}

func parseCSV(r io.Reader) ([]types.ScheduledJob, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	columns := make(map[string]int)
	for i, col := range header {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"id", "start"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("column %q not found in CSV. Available columns: %v", required, header)
		}
	}

	var jobs []types.ScheduledJob
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		field := func(name string) string {
			if i, ok := columns[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		job := types.ScheduledJob{
			ID:       field("id"),
			Product:  field("product"),
			Lane:     field("lane"),
			Status:   field("status"),
			Priority: field("priority"),
		}
		if job.Start, err = parseTime(field("start")); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if end := field("end"); end != "" {
			if job.End, err = parseTime(end); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if p := field("progress"); p != "" {
			if job.Progress, err = strconv.ParseFloat(p, 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid progress %q", line, p)
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
