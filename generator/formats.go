package generator

import (
	"errors"
	"fmt"
)

// DefaultFormatID is used when a request names an unknown format.
const DefaultFormatID = "book"

// Formats is an immutable registry of format templates. It is built once and
// shared read-only between requests.
type Formats struct {
	byID  map[string]FormatTemplate
	order []string
	def   string
}

// NewFormats validates the templates and builds a registry. defaultID must
// name one of them.
func NewFormats(defaultID string, templates ...FormatTemplate) (*Formats, error) {
	if len(templates) == 0 {
		return nil, errors.New("at least one format template is required")
	}
	f := &Formats{byID: make(map[string]FormatTemplate, len(templates)), def: defaultID}
	for _, t := range templates {
		if t.ID == "" {
			return nil, errors.New("format template id is required")
		}
		if _, dup := f.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate format template %q", t.ID)
		}
		f.byID[t.ID] = t
		f.order = append(f.order, t.ID)
	}
	if _, ok := f.byID[defaultID]; !ok {
		return nil, fmt.Errorf("default format %q is not registered", defaultID)
	}
	return f, nil
}

// DefaultFormats returns the built-in novel, comic and screenplay templates.
func DefaultFormats() *Formats {
	f, err := NewFormats(DefaultFormatID, builtinFormats...)
	if err != nil {
		panic(err)
	}
	return f
}

// Resolve returns the template for id, or the default template when id is
// unknown. Matching is case-sensitive.
func (f *Formats) Resolve(id string) FormatTemplate {
	if t, ok := f.byID[id]; ok {
		return t
	}
	return f.byID[f.def]
}

// Lookup reports whether id is registered.
func (f *Formats) Lookup(id string) (FormatTemplate, bool) {
	t, ok := f.byID[id]
	return t, ok
}

// Default returns the fallback template.
func (f *Formats) Default() FormatTemplate {
	return f.byID[f.def]
}

// List returns the templates in registration order.
func (f *Formats) List() []FormatTemplate {
	out := make([]FormatTemplate, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.byID[id])
	}
	return out
}

var builtinFormats = []FormatTemplate{
	{
		ID:   "book",
		Name: "Novel",
		SystemPrompt: "You are a creative writing partner helping a user write a novel one paragraph at a time. " +
			"Write exactly ONE short paragraph (3-4 sentences) of vivid literary prose that continues the story. " +
			"Never write more than one paragraph and never finish the story. " +
			"End with a short question asking the user what should happen next.",
	},
	{
		ID:   "comic",
		Name: "Comic Book",
		SystemPrompt: "You are a comic book writer building a story with the user one panel at a time. " +
			"Describe exactly ONE panel: a brief visual description followed by at most two lines of dialogue or captions. " +
			"Keep it punchy and never describe more than one panel. " +
			"End with a short question asking the user what happens in the next panel.",
	},
	{
		ID:   "screenplay",
		Name: "Screenplay",
		SystemPrompt: "You are a screenwriter developing a screenplay with the user one beat at a time. " +
			"Write exactly ONE short scene beat using screenplay conventions (scene heading if needed, action lines, character cues and dialogue). " +
			"Never write more than one beat. " +
			"End with a short question asking the user what happens next in the scene.",
	},
}
