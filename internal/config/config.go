package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ritech/internal/domain"
)

// Config models ritech.yml.
type Config struct {
	Company struct {
		Name    string `yaml:"name"`
		Dataset string `yaml:"dataset"`
	} `yaml:"company"`
	Catalog struct {
		JobTypes map[string]string `yaml:"job_types"`
		Statuses map[string]string `yaml:"statuses"`
	} `yaml:"catalog"`
	Security struct {
		PINMinLength int `yaml:"pin_min_length"`
	} `yaml:"security"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the catalogs label exactly the known types and statuses:
// no unknown entries, none of the closed enum missing.
func (c *Config) Validate() error {
	if c.Company.Dataset == "" {
		return fmt.Errorf("config.company.dataset is required")
	}
	if c.Catalog.JobTypes == nil {
		return fmt.Errorf("config.catalog.job_types is required")
	}
	if c.Catalog.Statuses == nil {
		return fmt.Errorf("config.catalog.statuses is required")
	}
	for _, t := range domain.JobTypes {
		if label, ok := c.Catalog.JobTypes[t]; !ok || label == "" {
			return fmt.Errorf("catalog.job_types missing label for %s", t)
		}
	}
	for t := range c.Catalog.JobTypes {
		if !domain.ValidJobType(t) {
			return fmt.Errorf("catalog.job_types has unknown type %s", t)
		}
	}
	for _, s := range domain.Statuses {
		if label, ok := c.Catalog.Statuses[s]; !ok || label == "" {
			return fmt.Errorf("catalog.statuses missing label for %s", s)
		}
	}
	for s := range c.Catalog.Statuses {
		if !domain.ValidStatus(s) {
			return fmt.Errorf("catalog.statuses has unknown status %s", s)
		}
	}
	if c.Security.PINMinLength < 4 {
		return fmt.Errorf("security.pin_min_length must be at least 4")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "ritech.yml")
}

// Default returns the default Config struct for a dataset owner.
func Default(dataset string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, dataset))).Decode(&cfg)
	cfg.Company.Dataset = dataset
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `company:
  name: RiTech
  dataset: %s

catalog:
  job_types:
    cctv: Videosorveglianza
    alarm: Impianto Allarme
    access: Controllo Accessi
    electric: Elettrico Generale

  statuses:
    quote_needed: Fare Preventivo
    quote_done: Fatto Preventivo
    order_material: Ordinare Materiale
    waiting_material: Attesa Materiale
    material_ordered: Materiale Ordinato
    todo: Da Fare
    progress: In Corso
    suspended: Sospeso
    done: Completato
    cancelled: Annullato

security:
  pin_min_length: 4
`
