package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poreport/poreport/pkg/jsonutil"
)

// PasswordPlaceholder replaces real credentials in anything this tool
// writes to disk. Passwords never leave the process.
const PasswordPlaceholder = "ENTER_PASSWORD_HERE"

// Meta records provenance for a generated config file.
type Meta struct {
	GeneratedOn  string `json:"generated_on" yaml:"generated_on"`
	TicketsFound int    `json:"tickets_found" yaml:"tickets_found"`
	Note         string `json:"note" yaml:"note"`
}

// Generated is the schema -generate-config writes: the File schema
// plus the doc fields this run actually observed, so the next run can
// request them explicitly.
type Generated struct {
	File                    `yaml:",inline"`
	DiscoveredRuleDocFields []string `json:"discovered_rule_doc_fields,omitempty" yaml:"discovered_rule_doc_fields,omitempty"`
	Metadata                *Meta    `json:"_metadata,omitempty" yaml:"_metadata,omitempty"`
}

// WriteSample writes a complete example config with placeholder
// credentials to path.
func WriteSample(path string) error {
	sample := File{
		Host:               "https://firemon.example.com",
		Username:           "api_user",
		Password:           PasswordPlaceholder,
		WorkflowID:         2,
		Status:             "all",
		Days:               30,
		CSV:                true,
		HTML:               true,
		IncludeRuleDetails: true,
		IncludeRuleDocs:    true,
		RuleDetailFields:   []string{"source", "destination", "service", "application", "action"},
		RuleDocFields:      []string{"owner", "business_justification", "review_date"},
		OutputDir:          "po_reports",
		Email: Email{
			Enabled:      false,
			Recipients:   []string{"netsec@example.com"},
			SMTPServer:   "smtp.example.com",
			SMTPPort:     587,
			SMTPUser:     "reports@example.com",
			SMTPPassword: PasswordPlaceholder,
		},
	}
	return writeFile(path, sample)
}

// Snapshot converts the effective run config into the file schema,
// stripping credentials down to placeholders.
func (c *Config) Snapshot(docFields []string, tickets int) *Generated {
	g := &Generated{
		File: File{
			Host:               c.Host,
			Username:           c.Username,
			WorkflowID:         c.WorkflowID,
			Status:             c.Status,
			Days:               c.Days,
			CSV:                c.CSV,
			HTML:               c.HTML,
			IncludeRuleDetails: c.IncludeRuleDetails,
			IncludeRuleDocs:    c.IncludeRuleDocs,
			RuleDetailFields:   c.RuleDetailFields,
			RuleDocFields:      c.RuleDocFields,
			OutputDir:          c.OutputDir,
			Email:              c.Email,
		},
		DiscoveredRuleDocFields: docFields,
		Metadata: &Meta{
			GeneratedOn:  time.Now().Format("2006-01-02 15:04:05"),
			TicketsFound: tickets,
			Note:         "Passwords are not saved. Fill them in or pass them on the command line.",
		},
	}
	if c.Password != "" {
		g.File.Password = PasswordPlaceholder
	}
	if c.Email.SMTPPassword != "" {
		g.File.Email.SMTPPassword = PasswordPlaceholder
	}
	return g
}

// WriteGenerated saves the snapshot to path, in YAML or JSON by
// extension.
func WriteGenerated(path string, g *Generated) error {
	return writeFile(path, g)
}

func writeFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(v)
	default:
		data, err = jsonutil.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
