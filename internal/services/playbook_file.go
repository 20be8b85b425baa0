package services

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"alfredoptarigan/nexus-talent/internal/models"
)

type playbookFile struct {
	Playbooks []models.Playbook `yaml:"playbooks"`
}

// LoadPlaybooks reads a YAML playbook library. A missing file is not an
// error and yields nothing.
func LoadPlaybooks(path string) ([]models.Playbook, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open playbooks file: %w", err)
	}
	defer f.Close()
	return DecodePlaybooks(f)
}

func DecodePlaybooks(r io.Reader) ([]models.Playbook, error) {
	var pf playbookFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse playbooks: %w", err)
	}
	for i, p := range pf.Playbooks {
		if p.PhaseID != "" && !models.IsKnownPhase(p.PhaseID) {
			return nil, fmt.Errorf("playbook %d (%q): %w %q", i+1, p.Title, ErrInvalidPhase, p.PhaseID)
		}
	}
	return pf.Playbooks, nil
}

// EncodePlaybooks writes playbooks in the format LoadPlaybooks reads.
func EncodePlaybooks(w io.Writer, playbooks []models.Playbook) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(playbookFile{Playbooks: playbooks}); err != nil {
		return fmt.Errorf("failed to encode playbooks: %w", err)
	}
	return enc.Close()
}
