// Package view renders the server-side HTML pages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/labstack/echo/v4"

	"autods/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// State is the lifecycle of a page's single action.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
	StateSuccess State = "success"
)

// Template names.
const (
	Landing = "landing"
	Signup  = "signup"
	Login   = "login"
	Upload  = "upload"
	Files   = "files"
	EditCSV = "editcsv"
)

var pages = []string{Landing, Signup, Login, Upload, Files, EditCSV}

// Page is embedded by every page model.
type Page struct {
	Title    string
	State    State
	Message  string
	SignedIn bool
}

// Fail sets the error state.
func (p *Page) Fail(msg string) {
	p.State, p.Message = StateError, msg
}

// Succeed sets the success state.
func (p *Page) Succeed(msg string) {
	p.State, p.Message = StateSuccess, msg
}

// SignupForm is the sign-up form as submitted, without the password.
type SignupForm struct {
	Email     string
	FirstName string
	LastName  string
}

type SignupPage struct {
	Page
	Form SignupForm
}

type LoginPage struct {
	Page
	Email   string
	Confirm bool
}

type UploadPage struct {
	Page
}

type FilesPage struct {
	Page
	Entries []model.FileEntry
}

type EditPage struct {
	Page
	Name string
	Grid model.Grid
}

// EditHref links a listed file to the CSV viewer.
func EditHref(e model.FileEntry) string {
	q := url.Values{}
	q.Set("name", e.Name)
	q.Set("url", e.URL)
	return "/editCSV?" + q.Encode()
}

var funcs = template.FuncMap{
	"editHref": EditHref,
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

// New parses every page together with the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render writes the named page wrapped in the layout.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
