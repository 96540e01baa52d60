package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/configloader"
	"github.com/configsrv/hoganserver/internal/gitrepo"
	"github.com/configsrv/hoganserver/internal/logging"
	"github.com/configsrv/hoganserver/internal/render"
)

// defaultTemplateFilter matches the original's generic handlebars
// template naming convention: an optional prefix, the literal "template"
// segment (optionally suffixed with a deploy qualifier), and a known
// config extension.
const defaultTemplateFilter = `(?i)(.*\.)?template(\.release|-liquibase|-quartz)?\.(config|yaml|properties)$`

var templateWordPattern = regexp.MustCompile(`(?i)template`)

func newTransformCommand() *cobra.Command {
	var (
		configsURL         string
		templatesDir       string
		environmentsFilter string
		templatesFilter    string
		ignoreExisting     bool
		strict             bool
		sshKey             string
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Render every template against every environment, offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New("info", "console")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if templatesDir == "" {
				templatesDir = "."
			}
			_ = strict // strict-mode undefined-key errors are not enforced by the render engine; see DESIGN.md

			source, err := gitrepo.NewConfigSourceFromURL(configsURL, sshKey, false)
			if err != nil {
				return fmt.Errorf("parse --configs: %w", err)
			}

			coordinator, err := newCoordinator(source, logger)
			if err != nil {
				return fmt.Errorf("initialize config source: %w", err)
			}
			// Git sources are already checked out at the branch (or default
			// HEAD) the clone resolved; transform renders from that
			// checkout as-is rather than resolving an explicit ref.

			envFilter := configloader.CompileFilter(environmentsFilter, gitrepo.AllEnvironmentsPattern)
			environments, err := coordinator.Find(envFilter)
			if err != nil {
				return fmt.Errorf("load environments: %w", err)
			}
			logger.Info("loaded config file(s)", zap.Int("count", len(environments)))

			tmplFilter, err := compileTemplateFilter(templatesFilter)
			if err != nil {
				return fmt.Errorf("compile --templates-filter: %w", err)
			}

			templatePaths, err := findTemplates(templatesDir, tmplFilter)
			if err != nil {
				return fmt.Errorf("scan templates: %w", err)
			}
			logger.Info("loaded template file(s)", zap.Int("count", len(templatePaths)))

			for _, env := range environments {
				logger.Info("updating templates for environment", zap.String("environment", env.Name))
				for _, path := range templatePaths {
					if err := renderTemplateFile(path, env.Name, env.ConfigData, ignoreExisting); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configsURL, "configs", "", "config source URL (required)")
	flags.StringVar(&templatesDir, "templates", ".", "directory containing templates to render")
	flags.StringVar(&environmentsFilter, "environments-filter", "", "regex selecting which config files are environments")
	flags.StringVar(&templatesFilter, "templates-filter", "", "regex selecting which files under --templates are templates")
	flags.BoolVar(&ignoreExisting, "ignore-existing", false, "skip files that already exist instead of overwriting")
	flags.BoolVar(&strict, "strict", false, "accepted for compatibility; has no effect (undefined template keys render empty)")
	flags.StringVar(&sshKey, "ssh-key", "", "SSH private key path for git-backed config sources")
	_ = cmd.MarkFlagRequired("configs")

	return cmd
}

func compileTemplateFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return regexp.MustCompile(defaultTemplateFilter), nil
	}
	return regexp.Compile(pattern)
}

func findTemplates(dir string, filter *regexp.Regexp) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filter.MatchString(d.Name()) {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}

// renderTemplateFile renders path against configData and writes the
// result alongside it, with "template" in the filename replaced by env.
func renderTemplateFile(path, env string, configData []byte, ignoreExisting bool) error {
	outPath := outputPathFor(path, env)
	if ignoreExisting {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Printf("Skipping %s - config already exists.\n", outPath)
			return nil
		}
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template %s: %w", path, err)
	}

	rendered, err := render.Render(string(contents), configData)
	if err != nil {
		return fmt.Errorf("render %s for %s: %w", path, env, err)
	}

	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}

func outputPathFor(templatePath, env string) string {
	dir, base := filepath.Split(templatePath)
	replaced := templateWordPattern.ReplaceAllString(base, env)
	if replaced == base {
		replaced = env + "." + base
	}
	return filepath.Join(dir, strings.TrimSuffix(replaced, ""))
}
