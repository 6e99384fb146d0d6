// Package dataset loads an evaluation dataset: one installation description and
// one recording per ground-truth grid point.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"locator-go/model"
)

const InstallationFile = "installation.txt"

var recordingFile = regexp.MustCompile(`^x(\d+)y(\d+)\.txt$`)

// MalformedDataError identifies the dataset file that could not be used.
type MalformedDataError struct {
	File string
	Err  error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed dataset file %s: %v", e.File, e.Err)
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

type Dataset struct {
	Installation model.Installation
	Recordings   map[model.Point]*model.Recording
}

// Points returns the ground-truth points in (x, y) order.
func (d *Dataset) Points() []model.Point {
	out := make([]model.Point, 0, len(d.Recordings))
	for p := range d.Recordings {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Load reads every file of dir. Files other than installation.txt and
// x<N>y<N>.txt make the dataset malformed.
func Load(dir string) (*Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read dataset %s", dir)
	}

	ds := &Dataset{Recordings: make(map[model.Point]*model.Recording)}
	var haveInstallation bool
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		if name == InstallationFile {
			inst, err := readInstallation(path)
			if err != nil {
				return nil, &MalformedDataError{File: path, Err: err}
			}
			ds.Installation = inst
			haveInstallation = true
			continue
		}

		m := recordingFile.FindStringSubmatch(name)
		if m == nil {
			return nil, &MalformedDataError{File: path, Err: errors.New("unknown file")}
		}
		x, errX := strconv.Atoi(m[1])
		y, errY := strconv.Atoi(m[2])
		if errX != nil || errY != nil {
			return nil, &MalformedDataError{File: path, Err: errors.New("grid coordinates out of range")}
		}
		rec, err := readRecording(path)
		if err != nil {
			return nil, &MalformedDataError{File: path, Err: err}
		}
		ds.Recordings[model.NewPoint(x, y)] = rec
	}

	if !haveInstallation {
		return nil, &MalformedDataError{File: filepath.Join(dir, InstallationFile), Err: errors.New("missing")}
	}
	return ds, nil
}

func readInstallation(path string) (model.Installation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Installation{}, err
	}
	var inst model.Installation
	if err := json.Unmarshal(data, &inst); err != nil {
		return model.Installation{}, errors.Wrap(err, "installation")
	}
	if err := inst.Validate(); err != nil {
		return model.Installation{}, err
	}
	return inst, nil
}

// readRecording accepts {"recording": "<recording json>"} as produced by the
// capture tooling, or the recording object embedded directly.
func readRecording(path string) (*model.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Recording json.RawMessage `json:"recording"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Wrap(err, "recording envelope")
	}
	raw := envelope.Recording
	if len(raw) == 0 {
		return nil, errors.New(`missing "recording" member`)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrap(err, "recording string")
		}
		raw = []byte(s)
	}
	return model.ParseRecording(raw)
}
