// Package solarboard serves a Grafana-style dashboard document over HTTP.
//
// The document is a JSON file whose "panels" array describes dashboard
// panels. SolarBoard exposes a simplified view of every panel and lets
// clients change one panel's min/max display range, writing the whole
// document back to the same file.
//
// # Quick Start
//
//	sb, _ := solarboard.New(solarboard.WithDashboardPath("dashboard-config.json"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sb.Start(ctx) // blocks until context is cancelled
//
// # HTTP API
//
//	GET  /                        landing page
//	GET  /api/solar-data          {"<panel id>": {title, unit, min, max, thresholds, customProperties, gaugeConfig?}}
//	POST /api/update-panel-range  {"panelId": "7", "min": 0, "max": 100}
//	GET  /api/events              Server-Sent Events on every document change
//
// Fields of the document that SolarBoard does not know about are preserved
// on write. Range updates made through one SolarBoard process are applied
// one at a time; edits made to the file by other programs are picked up on
// the next request and announced on /api/events.
//
// # Standalone Binary
//
// The cmd/solarboard command runs the same server from a YAML config file;
// see the config package.
package solarboard
