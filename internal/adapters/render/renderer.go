// Package render writes build plans as Nix expressions.
package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	_ "embed"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
)

//go:embed plan.nix.tmpl
var planTemplate string

// Renderer implements ports.PlanRenderer using a text template.
type Renderer struct {
	tmpl *template.Template

	// prompt input and output, overridable in tests.
	in  io.Reader
	out io.Writer
}

// New creates a new Renderer. It panics if the embedded template does not
// parse, which can only happen when the binary itself is broken.
func New() *Renderer {
	tmpl := template.Must(template.New("plan.nix").
		Funcs(template.FuncMap{"nixValue": nixValue}).
		Parse(planTemplate))
	return &Renderer{
		tmpl: tmpl,
		in:   os.Stdin,
		out:  os.Stderr,
	}
}

// NewWithPrompt creates a Renderer reading overwrite confirmations from in
// and writing prompts to out.
func NewWithPrompt(in io.Reader, out io.Writer) *Renderer {
	r := New()
	r.in = in
	r.out = out
	return r
}

// Render writes the plan as a Nix expression to w.
func (r *Renderer) Render(plan *domain.BuildPlan, w io.Writer) error {
	if err := r.tmpl.Execute(w, plan); err != nil {
		return zerr.Wrap(err, "failed to render plan")
	}
	return nil
}

// WriteFile renders the plan into path. If a plan already exists at path it
// is only replaced when it was written by a compatible generator version and
// the user confirms, unless force is set. The file is written through a
// temporary sibling and renamed into place.
func (r *Renderer) WriteFile(plan *domain.BuildPlan, path string, force bool) error {
	if _, err := os.Stat(path); err == nil {
		if err := r.checkExisting(plan, path, force); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return zerr.With(zerr.Wrap(err, "failed to stat plan file"), "path", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".nixplan-*.nix")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary plan file")
	}
	defer os.Remove(tmp.Name())

	if err := r.Render(plan, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temporary plan file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace plan file"), "path", path)
	}
	return nil
}

// checkExisting validates that the plan at path may be overwritten.
func (r *Renderer) checkExisting(plan *domain.BuildPlan, path string, force bool) error {
	existing, err := readVersionAttribute(path)
	if err != nil {
		return err
	}

	if existing != nil {
		// A plan written by version X requires a generator of at least
		// X.major.X.minor to replace it.
		req, err := semver.NewConstraint(fmt.Sprintf(">=%d.%d", existing.Major(), existing.Minor()))
		if err != nil {
			return zerr.Wrap(err, "failed to build version requirement")
		}
		current, err := semver.NewVersion(plan.Version)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "invalid generator version"), "version", plan.Version)
		}
		if !req.Check(current) {
			err := zerr.Wrap(domain.ErrPlanVersionMismatch, "existing plan was written by a newer generator")
			err = zerr.With(err, "path", path)
			err = zerr.With(err, "plan_version", existing.String())
			return zerr.With(err, "generator_version", plan.Version)
		}
	}

	if force {
		return nil
	}

	fmt.Fprintf(r.out, "%s already exists, overwrite? [yes/no] ", path)
	answer, err := bufio.NewReader(r.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return zerr.Wrap(err, "failed to read confirmation")
	}
	if strings.TrimSpace(answer) != "yes" {
		return zerr.With(zerr.Wrap(domain.ErrGenerateAborted, "plan file left untouched"), "path", path)
	}
	return nil
}

// ReadFingerprint extracts the sourceFingerprint attribute from the plan at
// path. A missing file or attribute yields the empty string, which never
// matches a computed fingerprint.
func (r *Renderer) ReadFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", zerr.With(zerr.Wrap(err, "failed to open existing plan"), "path", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "sourceFingerprint") {
			continue
		}
		start := strings.IndexByte(line, '"')
		end := strings.LastIndexByte(line, '"')
		if start < 0 || end <= start {
			continue
		}
		return line[start+1 : end], nil
	}
	if err := scanner.Err(); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to scan existing plan"), "path", path)
	}
	return "", nil
}

// readVersionAttribute extracts the nixplanVersion attribute from a plan
// file. It returns nil when the file carries no such attribute, which is
// treated as an unversioned plan that may always be replaced.
func readVersionAttribute(path string) (*semver.Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open existing plan"), "path", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "nixplanVersion") {
			continue
		}
		start := strings.IndexByte(line, '"')
		end := strings.LastIndexByte(line, '"')
		if start < 0 || end <= start {
			continue
		}
		v, err := semver.NewVersion(line[start+1 : end])
		if err != nil {
			return nil, zerr.With(
				zerr.Wrap(err, "existing plan carries an invalid version"), "raw", line[start+1:end])
		}
		return v, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to scan existing plan"), "path", path)
	}
	return nil, nil
}

// nixValue renders a profile setting as a Nix literal.
func nixValue(v any) string {
	switch v := v.(type) {
	case bool:
		return fmt.Sprintf("%t", v)
	case int, int64, uint, uint64, float64:
		return fmt.Sprintf("%v", v)
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%q", fmt.Sprintf("%v", v))
	}
}
