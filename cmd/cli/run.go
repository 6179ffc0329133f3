package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poreport/poreport/pkg/config"
	"github.com/poreport/poreport/pkg/fields"
	"github.com/poreport/poreport/pkg/firemon"
	"github.com/poreport/poreport/pkg/httpclient"
	"github.com/poreport/poreport/pkg/interactive"
	"github.com/poreport/poreport/pkg/logging"
	"github.com/poreport/poreport/pkg/rows"
	"github.com/poreport/poreport/pkg/ui"
)

// defaultWorkflowID is used when the appliance returns no workflows to
// choose from. Policy Optimizer installs ship workflow 2 out of the box.
const defaultWorkflowID = 2

func run(cfg *config.Config) int {
	ui.SetSilent(cfg.Silent)
	ui.SetNoColor(cfg.NoColor)

	if cfg.GenerateSample {
		if err := config.WriteSample(cfg.SampleConfigPath); err != nil {
			ui.Errorf("%v", err)
			return 1
		}
		ui.Successf("Sample configuration written to %s", cfg.SampleConfigPath)
		return 0
	}

	ui.Banner()

	if cfg.ConfigPath != "" {
		file, err := config.Load(cfg.ConfigPath)
		if err != nil {
			ui.Errorf("%v", err)
			return 1
		}
		cfg.Merge(file)
		if err := cfg.Validate(); err != nil {
			ui.Errorf("%v", err)
			return 1
		}
		ui.Infof("Loaded configuration from %s", cfg.ConfigPath)
	}

	log, closeLog, err := logging.Setup(cfg.LogFile)
	if err != nil {
		ui.Errorf("cannot open log file: %v", err)
		return 1
	}
	defer closeLog()

	prompt := interactive.New()
	if err := fillCredentials(cfg, prompt); err != nil {
		ui.Errorf("%v", err)
		return 1
	}
	if err := fillFormats(cfg, prompt); err != nil {
		ui.Errorf("%v", err)
		return 1
	}

	ctx := context.Background()
	client := firemon.New(cfg.Host,
		firemon.WithHTTPClient(httpclient.New(httpclient.WithTimeout(cfg.Timeout))),
		firemon.WithRateLimit(cfg.RateLimit),
		firemon.WithLogger(log),
	)

	ui.Section("Authentication")
	if err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
		log.Error("authentication failed", slog.String("error", err.Error()))
		ui.Errorf("Authentication failed: %v", err)
		return 1
	}
	ui.Successf("Authenticated as %s", cfg.Username)

	if cfg.WorkflowID == 0 {
		cfg.WorkflowID = selectWorkflow(ctx, client, prompt, log)
	}
	log.Info("run parameters",
		slog.Int("workflow", cfg.WorkflowID),
		slog.String("status", cfg.Status),
		slog.Int("days", cfg.Days))

	ui.Section("Fetching Tickets")
	tickets, err := client.Tickets(ctx, cfg.WorkflowID, normalizeStatus(cfg.Status), cfg.Days)
	if err != nil {
		log.Error("ticket fetch failed", slog.String("error", err.Error()))
		ui.Errorf("Ticket fetch failed: %v", err)
		return 1
	}
	if len(tickets) == 0 {
		ui.Warnf("No tickets found for workflow %d with the given filters", cfg.WorkflowID)
		return 0
	}
	ui.Successf("Fetched %d tickets", len(tickets))

	sel := fields.NewSelection(cfg.IncludeRuleDetails, cfg.IncludeRuleDocs,
		cfg.RuleDetailFields, cfg.RuleDocFields)
	if sel.NeedsEnrichment() {
		ui.Section("Rule Enrichment")
	}
	enriched, disc := rows.Collect(ctx, client, tickets, sel, log)
	proj := rows.NewProjector(sel, disc)
	for _, miss := range proj.MissingDocFields() {
		ui.Warnf("Requested doc field %q not present in any rule", miss)
		log.Warn("requested doc field not observed", slog.String("field", miss))
	}

	ui.Section("Reports")
	written, failed := writeReports(cfg, client.HostBase(), proj, enriched, log)
	if len(written) == 0 {
		ui.Errorf("No report could be written")
		return 1
	}

	if cfg.GenerateConfig != "" {
		snap := cfg.Snapshot(disc.Keys(), len(tickets))
		if err := config.WriteGenerated(cfg.GenerateConfig, snap); err != nil {
			ui.Warnf("Could not save configuration: %v", err)
			log.Warn("generate-config failed", slog.String("error", err.Error()))
		} else {
			ui.Successf("Configuration saved to %s", cfg.GenerateConfig)
		}
	}

	if cfg.Email.Enabled {
		sendReports(cfg, enriched, written, log)
	}

	printSummary(cfg, enriched, written)
	if failed {
		return 1
	}
	return 0
}

// fillCredentials prompts for anything required that neither flags nor
// config file supplied.
func fillCredentials(cfg *config.Config, prompt *interactive.Prompter) error {
	var err error
	if cfg.Host == "" {
		if cfg.Host, err = prompt.Required("Appliance host"); err != nil {
			return err
		}
	}
	if cfg.Username == "" {
		if cfg.Username, err = prompt.Required("Username"); err != nil {
			return err
		}
	}
	if cfg.Password == "" {
		if cfg.Password, err = prompt.Password("Password"); err != nil {
			return err
		}
	}
	return nil
}

// fillFormats asks for report formats when none were configured.
// Silent runs generate both; an interactive answer of no to both falls
// back to both as well, since a run with no report only burns API calls.
func fillFormats(cfg *config.Config, prompt *interactive.Prompter) error {
	if cfg.CSV || cfg.HTML {
		return nil
	}
	if !ui.IsSilent() {
		var err error
		if cfg.CSV, err = prompt.YesNo("Generate CSV report"); err != nil {
			return err
		}
		if cfg.HTML, err = prompt.YesNo("Generate HTML report"); err != nil {
			return err
		}
	}
	if !cfg.CSV && !cfg.HTML {
		ui.Warnf("No report format selected, generating both")
		cfg.CSV = true
		cfg.HTML = true
	}
	return nil
}

// selectWorkflow resolves a workflow id when none was configured.
// Listing failures are soft: the stock workflow id is assumed.
func selectWorkflow(ctx context.Context, client *firemon.Client, prompt *interactive.Prompter, log *slog.Logger) int {
	workflows, err := client.Workflows(ctx)
	if err != nil {
		log.Warn("workflow listing failed", slog.String("error", err.Error()))
		ui.Warnf("Could not list workflows (%v), assuming workflow %d", err, defaultWorkflowID)
		return defaultWorkflowID
	}
	if len(workflows) == 0 {
		ui.Warnf("No workflows found, assuming workflow %d", defaultWorkflowID)
		return defaultWorkflowID
	}

	var active []firemon.Workflow
	for _, w := range workflows {
		if !w.Disabled {
			active = append(active, w)
		}
	}
	if len(active) == 1 {
		ui.Infof("Using workflow %q (id %d)", active[0].Name, active[0].ID)
		return active[0].ID
	}

	if ui.IsSilent() {
		if len(active) > 0 {
			ui.Infof("Multiple workflows, using %q (id %d)", active[0].Name, active[0].ID)
			return active[0].ID
		}
		ui.Warnf("Only disabled workflows found, assuming workflow %d", defaultWorkflowID)
		return defaultWorkflowID
	}

	options, ids := workflowChoices(workflows)
	id, err := prompt.ChoiceValue("Select workflow", options, ids)
	if err != nil {
		ui.Warnf("No selection made, assuming workflow %d", defaultWorkflowID)
		return defaultWorkflowID
	}
	return id
}

// workflowChoices renders picker entries for every workflow, disabled
// ones included: they stay selectable, just tagged so the choice is
// informed.
func workflowChoices(workflows []firemon.Workflow) (options []string, ids []int) {
	for _, w := range workflows {
		label := fmt.Sprintf("%s (id %d)", w.Name, w.ID)
		if w.Disabled {
			label += " (DISABLED)"
		}
		options = append(options, label)
		ids = append(ids, w.ID)
	}
	return options, ids
}

// normalizeStatus maps the "all" pseudo-status to no filter.
func normalizeStatus(status string) string {
	if status == "" || status == "all" {
		return ""
	}
	return status
}

func printSummary(cfg *config.Config, enriched []rows.Enriched, written []string) {
	counts := map[string]int{}
	for _, e := range enriched {
		counts[e.Ticket.Status]++
	}

	ui.Section("Summary")
	ui.Stat("Workflow", strconv.Itoa(cfg.WorkflowID))
	ui.Stat("Tickets", strconv.Itoa(len(enriched)))
	for _, s := range []string{firemon.StatusReview, firemon.StatusCompleted, firemon.StatusCancelled} {
		if n := counts[s]; n > 0 {
			ui.Stat(s, strconv.Itoa(n))
		}
	}
	for _, path := range written {
		ui.Successf("Report: %s", path)
	}
}
