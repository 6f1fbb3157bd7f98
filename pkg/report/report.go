// Package report writes the HTML pages of a project: headings, text,
// images, netlists, element and parameter tables and LaTeX equations
// rendered by MathJax.
package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/edp1096/symspice/internal/consts"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var (
	ErrNoPage         = errors.New("no active HTML page")
	ErrDuplicateLabel = errors.New("duplicate label")
)

var fileNameRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Label is a named anchor on a page.
type Label struct {
	Name string
	Kind string // fig, eqn, netlist, elementdata, params, pz
	Text string
	Page string // page file name
}

type page struct {
	Title     string
	File      string
	Fragments []template.HTML
}

type Project struct {
	Name    string
	Dir     string
	pages   []*page
	current *page
	labels  []Label
	created time.Time
}

// InitProject creates the output tree below dir and writes an empty index.
func InitProject(name, dir string) (*Project, error) {
	for _, sub := range []string{consts.HTMLDir, consts.ImgDir, consts.CirDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating project tree: %w", err)
		}
	}
	p := &Project{Name: name, Dir: dir, created: time.Now()}
	if err := p.writeIndex(); err != nil {
		return nil, err
	}
	return p, nil
}

// HTMLPath, ImgPath and CirPath return paths inside the output tree.
func (p *Project) HTMLPath(file string) string { return filepath.Join(p.Dir, consts.HTMLDir, file) }

func (p *Project) ImgPath(file string) string { return filepath.Join(p.Dir, consts.ImgDir, file) }

func (p *Project) CirPath(file string) string { return filepath.Join(p.Dir, consts.CirDir, file) }

// Page starts a new page. The previous page is written out.
func (p *Project) Page(title string) error {
	if err := p.flush(); err != nil {
		return err
	}
	file := strings.Trim(fileNameRe.ReplaceAllString(title, "-"), "-")
	if file == "" {
		file = "page"
	}
	file = fmt.Sprintf("%02d-%s.html", len(p.pages)+1, strings.ToLower(file))
	p.current = &page{Title: title, File: file}
	p.pages = append(p.pages, p.current)
	return nil
}

// Pages returns the titles and file names of all pages.
func (p *Project) Pages() [][2]string {
	out := make([][2]string, len(p.pages))
	for i, pg := range p.pages {
		out[i] = [2]string{pg.Title, pg.File}
	}
	return out
}

// Labels returns the registered labels in order.
func (p *Project) Labels() []Label {
	return append([]Label(nil), p.labels...)
}

func (p *Project) addLabel(name, kind, text string) error {
	if name == "" {
		return nil
	}
	for _, l := range p.labels {
		if l.Name == name {
			return fmt.Errorf("%w: %s (on %s)", ErrDuplicateLabel, name, l.Page)
		}
	}
	p.labels = append(p.labels, Label{Name: name, Kind: kind, Text: text, Page: p.current.File})
	return nil
}

// add renders a fragment template on the current page and registers its label.
func (p *Project) add(tmpl string, data any, label, kind, text string) error {
	if p.current == nil {
		return ErrNoPage
	}
	if err := p.addLabel(label, kind, text); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("rendering %s: %w", tmpl, err)
	}
	p.current.Fragments = append(p.current.Fragments, template.HTML(buf.String()))
	return nil
}

func (p *Project) Head2(text string) error { return p.add("head2", text, "", "", "") }

func (p *Project) Head3(text string) error { return p.add("head3", text, "", "", "") }

func (p *Project) Text(text string) error { return p.add("text", text, "", "", "") }

// Image shows a file from the img directory.
func (p *Project) Image(file string, width int, caption, label string) error {
	data := struct {
		Src, Caption, Label string
		Width               int
	}{"../" + consts.ImgDir + "/" + file, caption, label, width}
	return p.add("image", data, label, "fig", caption)
}

// Netlist shows the contents of a netlist file.
func (p *Project) Netlist(path, label string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	data := struct{ File, Text, Label string }{filepath.Base(path), string(text), label}
	return p.add("netlist", data, label, "netlist", "Netlist "+filepath.Base(path))
}

// Close writes all pages and the index.
func (p *Project) Close() error {
	if err := p.flush(); err != nil {
		return err
	}
	p.current = nil
	return p.writeIndex()
}

func (p *Project) flush() error {
	if p.current == nil {
		return nil
	}
	data := struct {
		Project, Title string
		Fragments      []template.HTML
	}{p.Name, p.current.Title, p.current.Fragments}
	if err := p.write(p.current.File, "layout", data); err != nil {
		return err
	}
	return p.writeIndex()
}

func (p *Project) writeIndex() error {
	type link struct{ Title, File string }
	links := make([]link, len(p.pages))
	for i, pg := range p.pages {
		links[i] = link{pg.Title, pg.File}
	}
	data := struct {
		Project, Date string
		Pages         []link
		Labels        []Label
	}{p.Name, p.created.Format("2006-01-02 15:04"), links, p.labels}
	return p.write("index.html", "index", data)
}

func (p *Project) write(file, tmpl string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("rendering %s: %w", file, err)
	}
	return os.WriteFile(p.HTMLPath(file), buf.Bytes(), 0o644)
}
