// Package archive saves finished stories to disk, one UUID-named directory
// per story holding the plain text, an HTML rendering and metadata.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"auramythos/logx"
)

const (
	textFile = "story.txt"
	htmlFile = "story.html"
	metaFile = "meta.json"

	titleLimit = 60
)

// ErrNotFound is returned by Load for unknown ids.
var ErrNotFound = errors.New("story not found")

var writeFile = os.WriteFile

// Story is what callers hand to Save.
type Story struct {
	Title  string `json:"title"`
	Format string `json:"format"`
	Text   string `json:"story"`
}

// Entry describes a saved story.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"createdAt"`
	TextPath  string    `json:"textPath"`
	HTMLPath  string    `json:"htmlPath"`
}

// Document is a loaded story.
type Document struct {
	Entry
	Text string `json:"story"`
	HTML string `json:"html"`
}

// Store writes stories below Dir.
type Store struct {
	Dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("archive dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Save renders the story and writes it under a fresh id.
func (s *Store) Save(ctx context.Context, story Story) (Entry, error) {
	text := strings.TrimSpace(story.Text)
	if text == "" {
		return Entry{}, errors.New("story text is required")
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	title := strings.TrimSpace(story.Title)
	if title == "" {
		title = defaultTitle(text, titleLimit)
	}

	html, err := mdToHTML(toMarkdown(title, text))
	if err != nil {
		return Entry{}, fmt.Errorf("render story html: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(s.Dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:        id,
		Title:     title,
		Format:    story.Format,
		CreatedAt: time.Now().UTC(),
		TextPath:  filepath.Join(dir, textFile),
		HTMLPath:  filepath.Join(dir, htmlFile),
	}
	meta, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		removeDir(dir)
		return Entry{}, err
	}

	files := []struct {
		path string
		data []byte
	}{
		{entry.TextPath, []byte(text + "\n")},
		{entry.HTMLPath, []byte(html)},
		{filepath.Join(dir, metaFile), meta},
	}
	for _, f := range files {
		if err := writeFile(f.path, f.data, 0o644); err != nil {
			removeDir(dir)
			return Entry{}, fmt.Errorf("write %s: %w", filepath.Base(f.path), err)
		}
	}

	logx.Info().Str("story_id", id).Str("format", story.Format).Int("chars", len(text)).Msg("story archived")
	return entry, nil
}

// Load reads a saved story back. id must be a UUID.
func (s *Store) Load(_ context.Context, id string) (Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Document{}, ErrNotFound
	}
	dir := filepath.Join(s.Dir, id)

	meta, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(meta, &doc.Entry); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", metaFile, err)
	}

	text, err := readFile(filepath.Join(dir, textFile))
	if err != nil {
		return Document{}, err
	}
	html, err := readFile(filepath.Join(dir, htmlFile))
	if err != nil {
		return Document{}, err
	}
	doc.Text = strings.TrimSuffix(string(text), "\n")
	doc.HTML = string(html)
	return doc, nil
}

// removeDir drops a story directory that could not be written completely.
func removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logx.Warn().Err(err).Str("dir", dir).Msg("remove partial story dir")
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// toMarkdown turns the title and the blank-line separated story into a
// Markdown document.
func toMarkdown(title, text string) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(strings.ReplaceAll(title, "\n", " "))
	b.WriteString("\n\n")
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString(para)
		b.WriteString("\n\n")
	}
	return b.String()
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// defaultTitle takes the first characters of the story, whitespace collapsed.
func defaultTitle(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	r := []rune(joined)
	if len(r) <= limit {
		return joined
	}
	return strings.TrimSpace(string(r[:limit])) + "..."
}
