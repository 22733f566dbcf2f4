package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/billaudit/internal/model"
)

// contractFile is the on-disk YAML structure of a coverage contract.
type contractFile struct {
	Rules []model.ContractRule `yaml:"rules"`
}

// LoadContract reads a contract YAML file.
func LoadContract(path string) (model.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Contract{}, fmt.Errorf("read contract: %w", err)
	}
	var cf contractFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return model.Contract{}, fmt.Errorf("parse contract: %w", err)
	}
	return model.Contract{Rules: cf.Rules}, nil
}

// WriteContract writes c in the format LoadContract reads.
func WriteContract(path string, c model.Contract) error {
	data, err := yaml.Marshal(contractFile{Rules: c.Rules})
	if err != nil {
		return fmt.Errorf("encode contract: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write contract: %w", err)
	}
	return nil
}
