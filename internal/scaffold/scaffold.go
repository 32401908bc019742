package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/treadlabs/treads/internal/aggregate"
	"github.com/treadlabs/treads/internal/manifest"
)

//go:embed all:templates
var templateFS embed.FS

// Data holds the variables available to scaffold templates.
type Data struct {
	Name string // project or agent name
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// Project renders the project template set into outputDir and creates the
// empty directories a fresh project needs (agents/, static/). The generated
// root agent manifest is validated and any findings surface as warnings.
func Project(name, outputDir string) (*Result, error) {
	result, err := render("project", Data{Name: name}, outputDir)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{aggregate.DefaultAgentsDir, "static"} {
		if err := os.MkdirAll(filepath.Join(outputDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", dir, err)
		}
	}

	validateManifest(result, filepath.Join(outputDir, aggregate.DefaultAgentsDir, aggregate.DefaultRootAgent, aggregate.DefaultManifestName))
	return result, nil
}

// Agent renders the agent template set into agentsDir/<name>, substituting
// the agent name, and validates the generated manifest.
func Agent(name, agentsDir string) (*Result, error) {
	outputDir := filepath.Join(agentsDir, name)
	result, err := render("agent", Data{Name: name}, outputDir)
	if err != nil {
		return nil, err
	}

	validateManifest(result, filepath.Join(outputDir, aggregate.DefaultManifestName))
	return result, nil
}

// render executes every template in the named embedded set into outputDir,
// preserving subdirectories and stripping the .tmpl extension.
func render(setName string, data Data, outputDir string) (*Result, error) {
	templatesDir := "templates/" + setName

	if _, err := fs.ReadDir(templateFS, templatesDir); err != nil {
		return nil, fmt.Errorf("template set %q not found: %w", setName, err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Check for existing files to prevent accidental overwrites.
	existing, err := os.ReadDir(outputDir)
	if err == nil && len(existing) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{OutputDir: outputDir}

	err = fs.WalkDir(templateFS, templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(templatesDir, path)
		if err != nil {
			return err
		}
		outName := strings.TrimSuffix(rel, ".tmpl")
		outPath := filepath.Join(outputDir, outName)

		tmplBytes, err := fs.ReadFile(templateFS, path)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", path, err)
		}

		tmpl, err := template.New(d.Name()).Parse(string(tmplBytes))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", d.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("executing template %s: %w", d.Name(), err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}

		result.Files = append(result.Files, outName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// validateManifest checks a generated manifest against the schema and folds
// any issues into the result's warnings.
func validateManifest(result *Result, manifestPath string) {
	if _, err := os.Stat(manifestPath); err != nil {
		return
	}
	valResult, err := manifest.ValidateFile(manifestPath)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not validate manifest: %v", err))
		return
	}
	if valResult.Valid {
		return
	}
	for _, issue := range valResult.Issues {
		msg := issue.Message
		if issue.Path != "" {
			msg = issue.Path + ": " + msg
		}
		result.Warnings = append(result.Warnings, msg)
	}
}
