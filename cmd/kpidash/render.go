package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kpidash/internal/backend"
	"kpidash/internal/cli"
	"kpidash/internal/core"
	applog "kpidash/internal/log"
	"kpidash/internal/page"
	"kpidash/internal/textview"
)

// Render-specific flag values.
var (
	renderCategory string
	renderFormat   string
)

var renderFormats = []string{"text", "json", "yaml"}

// renderCmd prints one render pass of the page.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the dashboard to stdout",
	Long: `Run one render pass and print the page as colored text, JSON or YAML.
Without --category the first category of the table is selected.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderCategory, "category", "c", "", "category to select")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "text", "output format: text, json or yaml")
}

func runRender(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(renderFormat); err != nil {
		return err
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(logLevel(cfg.LogLevel), cmd.ErrOrStderr())
	ctx := cmd.Context()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer res.Close()

	composer := page.NewComposer(res.Store, page.DefaultContent(), logger.WithComponent(applog.ComponentPage).Slog())
	return renderPage(ctx, cmd.OutOrStdout(), composer, renderCategory, renderFormat, noColor)
}

func validateFormat(format string) error {
	for _, f := range renderFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be one of %s", format, strings.Join(renderFormats, ", "))
}

// renderPage runs one render pass for category, or the default selection
// when category is empty, and writes it to w in the given format.
func renderPage(ctx context.Context, w io.Writer, composer *page.Composer, category, format string, plain bool) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	sess, err := page.NewSession(ctx, "cli", composer)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	var pg page.Page
	if category == "" {
		pg, err = sess.Render(ctx)
	} else {
		pg, err = sess.OnSelectionChanged(ctx, category)
	}
	if errors.Is(err, core.ErrInvalidCategory) {
		cats, cerr := composer.Categories(ctx)
		if cerr != nil {
			return err
		}
		return fmt.Errorf("%w (options: %s)", err, strings.Join(cats, ", "))
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pg)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(pg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return textview.Render(w, pg, textview.Options{NoColor: plain})
	}
}
