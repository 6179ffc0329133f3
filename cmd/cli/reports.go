package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poreport/poreport/pkg/config"
	"github.com/poreport/poreport/pkg/firemon"
	"github.com/poreport/poreport/pkg/mailer"
	"github.com/poreport/poreport/pkg/output/writers"
	"github.com/poreport/poreport/pkg/rows"
	"github.com/poreport/poreport/pkg/ui"
)

const defaultOutputDir = "po_reports"

// reportBase derives the shared filename stem, e.g.
// po_tickets_wf2_completed_30days_20260830_141502.
func reportBase(cfg *config.Config, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "po_tickets_wf%d", cfg.WorkflowID)
	if s := cfg.Status; s != "" && !strings.EqualFold(s, "all") {
		fmt.Fprintf(&b, "_%s", strings.ToLower(s))
	}
	if cfg.Days > 0 {
		fmt.Fprintf(&b, "_%ddays", cfg.Days)
	}
	fmt.Fprintf(&b, "_%s", now.Format("20060102_150405"))
	return b.String()
}

// writeReports renders every requested format to the output directory.
// A failed format is reported but does not stop the other one.
func writeReports(cfg *config.Config, hostBase string, proj *rows.Projector, data []rows.Enriched, log *slog.Logger) (written []string, failed bool) {
	dir := cfg.OutputDir
	if dir == "" {
		dir = defaultOutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		ui.Errorf("Cannot create %s: %v", dir, err)
		log.Error("output dir", slog.String("error", err.Error()))
		return nil, true
	}
	base := filepath.Join(dir, reportBase(cfg, time.Now()))

	if cfg.CSV {
		path := base + ".csv"
		if err := writeCSV(path, proj, data, log); err != nil {
			ui.Errorf("CSV report failed: %v", err)
			log.Error("csv render", slog.String("error", err.Error()))
			failed = true
		} else {
			written = append(written, path)
		}
	}
	if cfg.HTML {
		path := base + ".html"
		htmlCfg := writers.HTMLConfig{
			BaseURL:           hostBase,
			DefaultWorkflowID: cfg.WorkflowID,
		}
		if err := writeHTML(path, htmlCfg, proj, data); err != nil {
			ui.Errorf("HTML report failed: %v", err)
			log.Error("html render", slog.String("error", err.Error()))
			failed = true
		} else {
			written = append(written, path)
		}
	}
	return written, failed
}

func writeCSV(path string, proj *rows.Projector, data []rows.Enriched, log *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := writers.RenderCSV(f, proj, data, writers.CSVOptions{
		ExcelCompatible:  true,
		SanitizeFormulas: true,
	}, log)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("csv written", slog.String("path", path), slog.Int("rows", n))
	return nil
}

func writeHTML(path string, cfg writers.HTMLConfig, proj *rows.Projector, data []rows.Enriched) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = writers.RenderHTML(f, cfg, proj, data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// sendReports emails the generated files. Failures are soft: the
// reports stay on disk either way.
func sendReports(cfg *config.Config, data []rows.Enriched, attachments []string, log *slog.Logger) {
	if len(cfg.Email.Recipients) == 0 {
		ui.Warnf("Email enabled but no recipients configured")
		return
	}

	subject := fmt.Sprintf("Policy Optimizer Tickets Report - %s",
		time.Now().Format("2006-01-02"))
	mc := mailer.Config{
		Recipients: cfg.Email.Recipients,
		Server:     cfg.Email.SMTPServer,
		Port:       cfg.Email.SMTPPort,
		User:       cfg.Email.SMTPUser,
		Password:   cfg.Email.SMTPPassword,
		Timeout:    cfg.Timeout,
	}
	if err := mailer.Send(mc, subject, emailBody(cfg, data, attachments), attachments, log); err != nil {
		ui.Warnf("Email delivery failed: %v", err)
		log.Warn("email delivery failed", slog.String("error", err.Error()))
		return
	}
	ui.Successf("Report emailed to %s", strings.Join(cfg.Email.Recipients, ", "))
}

func emailBody(cfg *config.Config, data []rows.Enriched, attachments []string) string {
	counts := map[string]int{}
	for _, e := range data {
		counts[e.Ticket.Status]++
	}

	var b strings.Builder
	b.WriteString("Policy Optimizer Tickets Report\n")
	b.WriteString("===============================\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Workflow:  %d\n", cfg.WorkflowID)
	if cfg.Status != "" {
		fmt.Fprintf(&b, "Status:    %s\n", cfg.Status)
	}
	if cfg.Days > 0 {
		fmt.Fprintf(&b, "Window:    last %d days\n", cfg.Days)
	}
	fmt.Fprintf(&b, "\nTotal tickets: %d\n", len(data))
	for _, status := range []string{firemon.StatusReview, firemon.StatusCompleted, firemon.StatusCancelled} {
		if n := counts[status]; n > 0 {
			fmt.Fprintf(&b, "  %-10s %d\n", status+":", n)
		}
	}
	b.WriteString("\nAttached reports:\n")
	for _, a := range attachments {
		fmt.Fprintf(&b, "  %s\n", filepath.Base(a))
	}
	return b.String()
}
