package citation

import "github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"

// Type tags the two citation variants.
type Type string

const (
	TypeFile Type = "file"
	TypeURL  Type = "url"
)

const (
	defaultFileName = "unknown"
	defaultURLTitle = "Web Result"
)

// Citation is one deduplicated reference attached to an assistant message.
// FileID/FileName are set for file citations, URL/Title for url citations.
type Citation struct {
	Type     Type   `json:"type"`
	FileID   string `json:"file_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Accumulator collects annotation events from any number of handling sites
// during one stream and keeps an ordered, deduplicated citation list. The
// dedup key is (type, file id) or (type, url); the first occurrence wins,
// including its filename or title.
//
// Not safe for concurrent use; one stream feeds one accumulator.
type Accumulator struct {
	citations []Citation
	seen      map[string]struct{}
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]struct{})}
}

// Add folds one annotation event in and returns the citations so far.
// Annotations of unknown type are ignored.
func (a *Accumulator) Add(event llm.Annotation) []Citation {
	switch event.Type {
	case llm.AnnotationFileCitation:
		a.add("file:"+event.FileID, Citation{
			Type:     TypeFile,
			FileID:   event.FileID,
			FileName: orDefault(event.Filename, defaultFileName),
		})
	case llm.AnnotationURLCitation:
		a.add("url:"+event.URL, Citation{
			Type:  TypeURL,
			URL:   event.URL,
			Title: orDefault(event.Title, defaultURLTitle),
		})
	}
	return a.Citations()
}

// AddAll folds a batch of annotation events in.
func (a *Accumulator) AddAll(events []llm.Annotation) []Citation {
	for _, event := range events {
		a.Add(event)
	}
	return a.Citations()
}

// Citations returns the accumulated list in first-seen order.
func (a *Accumulator) Citations() []Citation {
	out := make([]Citation, len(a.citations))
	copy(out, a.citations)
	return out
}

// Len returns the number of distinct citations.
func (a *Accumulator) Len() int {
	return len(a.citations)
}

func (a *Accumulator) add(key string, c Citation) {
	if _, dup := a.seen[key]; dup {
		return
	}
	a.seen[key] = struct{}{}
	a.citations = append(a.citations, c)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
