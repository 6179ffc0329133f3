// Package config holds all CLI configuration: flags, JSON/YAML config
// files, and the precedence rule between them (CLI wins, file fills
// blanks, prompts cover the rest).
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poreport/poreport/pkg/jsonutil"
	"github.com/poreport/poreport/pkg/logging"
)

// Statuses a ticket filter accepts.
var ValidStatuses = []string{"all", "Review", "Completed", "Cancelled"}

// Email holds delivery settings, nested in the config file the same
// way operators already write it.
type Email struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	Recipients   []string `json:"recipients,omitempty" yaml:"recipients,omitempty"`
	SMTPServer   string   `json:"smtp_server,omitempty" yaml:"smtp_server,omitempty"`
	SMTPPort     int      `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty"`
	SMTPUser     string   `json:"smtp_user,omitempty" yaml:"smtp_user,omitempty"`
	SMTPPassword string   `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
}

// File is the config file schema. JSON and YAML carry the same keys.
type File struct {
	Host               string   `json:"host,omitempty" yaml:"host,omitempty"`
	Username           string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password           string   `json:"password,omitempty" yaml:"password,omitempty"`
	WorkflowID         int      `json:"workflow_id,omitempty" yaml:"workflow_id,omitempty"`
	Status             string   `json:"status,omitempty" yaml:"status,omitempty"`
	Days               int      `json:"days,omitempty" yaml:"days,omitempty"`
	CSV                bool     `json:"csv,omitempty" yaml:"csv,omitempty"`
	HTML               bool     `json:"html,omitempty" yaml:"html,omitempty"`
	IncludeRuleDetails bool     `json:"include_rule_details,omitempty" yaml:"include_rule_details,omitempty"`
	IncludeRuleDocs    bool     `json:"include_rule_docs,omitempty" yaml:"include_rule_docs,omitempty"`
	RuleDetailFields   []string `json:"rule_detail_fields,omitempty" yaml:"rule_detail_fields,omitempty"`
	RuleDocFields      []string `json:"rule_doc_fields,omitempty" yaml:"rule_doc_fields,omitempty"`
	OutputDir          string   `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Email              Email    `json:"email" yaml:"email"`
}

// Config is the effective run configuration after flags, file and
// prompts are merged.
type Config struct {
	Host     string
	Username string
	Password string

	WorkflowID int
	Status     string
	Days       int

	CSV                bool
	HTML               bool
	IncludeRuleDetails bool
	IncludeRuleDocs    bool
	RuleDetailFields   []string // nil = all
	RuleDocFields      []string // nil = all discovered

	Email Email

	OutputDir string
	LogFile   string
	Timeout   time.Duration
	RateLimit float64

	Silent  bool
	NoColor bool

	// Config file plumbing
	ConfigPath       string
	GenerateConfig   string
	GenerateSample   bool
	SampleConfigPath string
}

// ParseFlags parses command line arguments into a Config. List-valued
// flags take comma-separated values.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("poreport", flag.ContinueOnError)

	// === CONFIG FILES ===
	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to JSON or YAML configuration file")
	fs.BoolVar(&cfg.GenerateSample, "generate-sample-config", false, "Write a sample configuration file and exit")
	fs.StringVar(&cfg.SampleConfigPath, "sample-config-path", "config_sample.json", "Target for -generate-sample-config")
	fs.StringVar(&cfg.GenerateConfig, "generate-config", "", "Save the configuration used in this run to FILE")

	// === CONNECTION ===
	fs.StringVar(&cfg.Host, "host", "", "Appliance host (e.g. https://fm.example.com)")
	fs.StringVar(&cfg.Username, "username", "", "API username")
	fs.StringVar(&cfg.Username, "u", "", "API username (alias)")
	fs.StringVar(&cfg.Password, "password", "", "API password")
	timeout := fs.Int("timeout", 30, "HTTP timeout in seconds")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", 0, "Max API requests per second (0 = unpaced)")

	// === FILTERS ===
	fs.IntVar(&cfg.WorkflowID, "workflow-id", 0, "Workflow ID")
	fs.IntVar(&cfg.WorkflowID, "w", 0, "Workflow ID (alias)")
	fs.StringVar(&cfg.Status, "status", "", "Filter by status: all, Review, Completed, Cancelled")
	fs.IntVar(&cfg.Days, "days", 0, "Only include tickets created in the last N days")

	// === REPORTS ===
	fs.BoolVar(&cfg.CSV, "csv", false, "Generate CSV report")
	fs.BoolVar(&cfg.HTML, "html", false, "Generate HTML report")
	fs.BoolVar(&cfg.IncludeRuleDetails, "include-rule-details", false, "Include rule configuration fields")
	fs.BoolVar(&cfg.IncludeRuleDocs, "include-rule-docs", false, "Include rule documentation fields")
	detailFields := fs.String("rule-detail-fields", "", "Comma-separated detail fields (default: all)")
	docFields := fs.String("rule-doc-fields", "", "Comma-separated doc fields (default: all discovered)")
	fs.StringVar(&cfg.OutputDir, "output-dir", "", "Report output directory (default: po_reports)")

	// === EMAIL ===
	email := fs.Bool("email", false, "Send reports via email")
	recipients := fs.String("email-recipients", "", "Comma-separated recipient addresses")
	fs.StringVar(&cfg.Email.SMTPServer, "smtp-server", "", "SMTP server (empty = local sendmail)")
	fs.IntVar(&cfg.Email.SMTPPort, "smtp-port", 0, "SMTP port (587 STARTTLS, 465 TLS)")
	fs.StringVar(&cfg.Email.SMTPUser, "smtp-user", "", "SMTP username")
	fs.StringVar(&cfg.Email.SMTPPassword, "smtp-password", "", "SMTP password")

	// === OUTPUT ===
	fs.StringVar(&cfg.LogFile, "log-file", logging.DefaultLogFile, "Run log file")
	fs.BoolVar(&cfg.Silent, "silent", false, "Suppress console output")
	fs.BoolVar(&cfg.Silent, "s", false, "Silent (alias)")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&cfg.NoColor, "nc", false, "No color (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Timeout = time.Duration(*timeout) * time.Second
	cfg.Email.Enabled = *email
	cfg.RuleDetailFields = splitList(*detailFields)
	cfg.RuleDocFields = splitList(*docFields)
	cfg.Email.Recipients = splitList(*recipients)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no later stage can repair.
func (c *Config) Validate() error {
	if c.Status != "" {
		ok := false
		for _, s := range ValidStatuses {
			if strings.EqualFold(c.Status, s) {
				c.Status = s // canonical spelling
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("config: invalid status %q (one of %s)",
				c.Status, strings.Join(ValidStatuses, ", "))
		}
	}
	if c.Days < 0 {
		return fmt.Errorf("config: days must not be negative (0 means no window)")
	}
	if c.Email.SMTPPort < 0 || c.Email.SMTPPort > 65535 {
		return fmt.Errorf("config: smtp port out of range")
	}
	return nil
}

// Load reads a config file, decoding YAML for .yaml/.yml paths and
// JSON otherwise.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := jsonutil.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return &f, nil
}

// Merge fills every Config value the CLI left at its zero value from
// the file. CLI always wins when both are set.
func (c *Config) Merge(f *File) {
	if f == nil {
		return
	}
	if c.Host == "" {
		c.Host = f.Host
	}
	if c.Username == "" {
		c.Username = f.Username
	}
	if c.Password == "" {
		c.Password = f.Password
	}
	if c.WorkflowID == 0 {
		c.WorkflowID = f.WorkflowID
	}
	if c.Status == "" {
		c.Status = f.Status
	}
	if c.Days == 0 {
		c.Days = f.Days
	}
	c.CSV = c.CSV || f.CSV
	c.HTML = c.HTML || f.HTML
	c.IncludeRuleDetails = c.IncludeRuleDetails || f.IncludeRuleDetails
	c.IncludeRuleDocs = c.IncludeRuleDocs || f.IncludeRuleDocs
	if c.RuleDetailFields == nil {
		c.RuleDetailFields = f.RuleDetailFields
	}
	if c.RuleDocFields == nil {
		c.RuleDocFields = f.RuleDocFields
	}
	if c.OutputDir == "" {
		c.OutputDir = f.OutputDir
	}
	c.Email.Enabled = c.Email.Enabled || f.Email.Enabled
	if c.Email.Recipients == nil {
		c.Email.Recipients = f.Email.Recipients
	}
	if c.Email.SMTPServer == "" {
		c.Email.SMTPServer = f.Email.SMTPServer
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = f.Email.SMTPPort
	}
	if c.Email.SMTPUser == "" {
		c.Email.SMTPUser = f.Email.SMTPUser
	}
	if c.Email.SMTPPassword == "" {
		c.Email.SMTPPassword = f.Email.SMTPPassword
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
