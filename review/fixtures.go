package review

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"warranty-registration/models"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/requests.yaml
var defaultFixtures []byte

type fixtureFile struct {
	Requests []models.WarrantyRequest `yaml:"requests"`
}

// DefaultFixtures returns the sample requests bundled with the binary
func DefaultFixtures() ([]models.WarrantyRequest, error) {
	return DecodeFixtures(bytes.NewReader(defaultFixtures))
}

// LoadFixtures reads seed requests from a YAML file
func LoadFixtures(path string) ([]models.WarrantyRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()

	requests, err := DecodeFixtures(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return requests, nil
}

// DecodeFixtures parses seed requests and checks every entry has an id and a known status
func DecodeFixtures(r io.Reader) ([]models.WarrantyRequest, error) {
	var file fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}

	for i, req := range file.Requests {
		if req.ID == "" {
			return nil, fmt.Errorf("fixture %d: missing id", i)
		}
		if !req.Status.Valid() {
			return nil, fmt.Errorf("fixture %s: %w: %q", req.ID, ErrInvalidStatus, req.Status)
		}
	}
	return file.Requests, nil
}
