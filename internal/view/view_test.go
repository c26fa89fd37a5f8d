package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autods/internal/model"
)

func render(t *testing.T, name string, data interface{}) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data, nil))
	return buf.String()
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, "missing", nil, nil))
}

func TestRender_Landing(t *testing.T) {
	out := render(t, Landing, Page{Title: "Home"})
	assert.Contains(t, out, `href="/login"`)
	assert.Contains(t, out, `href="/signup"`)
	assert.Contains(t, out, `href="/upload-csv"`)
}

func TestRender_EditCSV(t *testing.T) {
	grid := model.Grid{Rows: [][]string{{"name", "age"}, {"Alice", "30"}, {"<b>Bob</b>", "25"}}}
	out := render(t, EditCSV, EditPage{Page: Page{Title: "Edit"}, Name: "people.csv", Grid: grid})

	assert.Contains(t, out, "Editing: people.csv")
	assert.Contains(t, out, "<thead>\n<tr><th>name</th><th>age</th></tr>")
	assert.Contains(t, out, "<tr><td>Alice</td><td>30</td></tr>")
	assert.Contains(t, out, "&lt;b&gt;Bob&lt;/b&gt;")
	assert.Equal(t, 2, strings.Count(out, "<tr><td>"))
}

func TestRender_EditCSVErrorHidesTable(t *testing.T) {
	page := EditPage{Page: Page{Title: "Edit"}, Name: "people.csv"}
	page.Fail("Missing file URL.")
	out := render(t, EditCSV, page)

	assert.Contains(t, out, "Missing file URL.")
	assert.NotContains(t, out, "<table>")
}

func TestRender_Files(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("entries", func(t *testing.T) {
		out := render(t, Files, FilesPage{
			Page: Page{Title: "My Files", SignedIn: true},
			Entries: []model.FileEntry{
				{Name: "1_a.csv", CreatedAt: at, URL: "https://x.test/a?token=1&t=2"},
				{Name: "2_c.csv", CreatedAt: at, URLErr: errors.New("object not found")},
			},
		})
		assert.Contains(t, out, `href="/editCSV?name=1_a.csv&amp;url=https%3A%2F%2Fx.test%2Fa%3Ftoken%3D1%26t%3D2"`)
		assert.Contains(t, out, "Unavailable")
		assert.Contains(t, out, "2025-03-01 09:30")
		assert.Contains(t, out, `action="/logout"`)
	})

	t.Run("empty", func(t *testing.T) {
		out := render(t, Files, FilesPage{Page: Page{Title: "My Files", SignedIn: true}})
		assert.Contains(t, out, "No CSV files found.")
		assert.Contains(t, out, `href="/upload-csv"`)
	})

	t.Run("error", func(t *testing.T) {
		page := FilesPage{Page: Page{Title: "My Files"}}
		page.Fail("Could not list files.")
		out := render(t, Files, page)
		assert.Contains(t, out, "Could not list files.")
		assert.NotContains(t, out, "No CSV files found.")
	})
}

func TestRender_Upload(t *testing.T) {
	page := UploadPage{Page: Page{Title: "Upload CSV"}}
	page.Succeed("✅ Upload successful!")
	out := render(t, Upload, page)

	assert.Contains(t, out, "✅ Upload successful!")
	assert.Contains(t, out, `<a href="/my-files">View Dashboard</a>`)
	assert.Contains(t, out, `data-loading="Uploading..."`)
	assert.Contains(t, out, `name="file"`)
}

func TestRender_Signup(t *testing.T) {
	page := SignupPage{Page: Page{Title: "Sign Up"}, Form: SignupForm{Email: "ada@example.com", FirstName: "Ada"}}
	page.Fail("Profile setup failed: duplicate key")
	out := render(t, Signup, page)

	assert.Contains(t, out, `class="message error" role="alert"`)
	assert.Contains(t, out, "Profile setup failed: duplicate key")
	assert.Contains(t, out, `value="ada@example.com"`)
	assert.Contains(t, out, `data-loading="Signing up..."`)
}

func TestEditHref(t *testing.T) {
	got := EditHref(model.FileEntry{Name: "1_a.csv", URL: "https://x.test/o?token=t"})
	assert.Equal(t, "/editCSV?name=1_a.csv&url=https%3A%2F%2Fx.test%2Fo%3Ftoken%3Dt", got)
}
