// Package ideablock extracts structured idea blocks from assistant output
// and renders them for display.
package ideablock

import (
	"fmt"
	"strings"
)

const (
	tagBlock      = "ideablock"
	tagName       = "name"
	tagQuestion   = "critical_question"
	tagAnswer     = "trusted_answer"
	tagTags       = "tags"
	tagKeywords   = "keywords"
	tagEntity     = "entity"
	tagEntityName = "entity_name"
	tagEntityType = "entity_type"
)

// Entity is a named thing referenced by a block
type Entity struct {
	Name string
	Type string
}

// Block is one parsed <ideablock>
type Block struct {
	Name     string
	Question string
	Answer   string
	Tags     string
	Keywords string
	Entities []Entity
}

// Labels returns the keywords, or the tags when there are no keywords,
// split on commas.
func (b Block) Labels() []string {
	raw := b.Keywords
	if raw == "" {
		raw = b.Tags
	}
	if raw == "" {
		return nil
	}

	var labels []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}

// EntityList joins entity names with "; "
func (b Block) EntityList() string {
	names := make([]string, 0, len(b.Entities))
	for _, e := range b.Entities {
		names = append(names, e.Name)
	}
	return strings.Join(names, "; ")
}

// Issue is a malformed construct found while parsing
type Issue struct {
	Offset int
	Tag    string
	Err    error
}

func (i Issue) Error() string {
	return fmt.Sprintf("%v <%s> at offset %d", i.Err, i.Tag, i.Offset)
}

func (i Issue) Unwrap() error {
	return i.Err
}

// Document is the result of parsing assistant output
type Document struct {
	// HasMarkup is true when the content contains an <ideablock> tag
	HasMarkup bool
	Blocks    []Block
	Issues    []Issue
}

// HasMarkup reports whether content contains an <ideablock> opening tag
func HasMarkup(content string) bool {
	for _, t := range lex(content) {
		if t.kind == tokenOpen && t.name == tagBlock {
			return true
		}
	}
	return false
}

// Parse extracts every complete block from content. Blocks missing a name,
// critical question or trusted answer are dropped.
func Parse(content string) Document {
	toks := lex(content)
	var doc Document

	for i := 0; i < len(toks); i++ {
		if toks[i].kind != tokenOpen || toks[i].name != tagBlock {
			continue
		}
		doc.HasMarkup = true

		j := findClose(toks, i+1, tagBlock)
		if j < 0 {
			doc.Issues = append(doc.Issues, Issue{Offset: toks[i].start, Tag: tagBlock, Err: ErrUnterminatedBlock})
			break
		}

		p := &blockParser{src: content, toks: toks[i+1 : j]}
		if block, ok := p.parse(); ok {
			doc.Blocks = append(doc.Blocks, block)
		}
		doc.Issues = append(doc.Issues, p.issues...)
		i = j
	}

	return doc
}

// findClose returns the index of the first closing tag named name at or
// after from, or -1.
func findClose(toks []token, from int, name string) int {
	for k := from; k < len(toks); k++ {
		if toks[k].kind == tokenClose && toks[k].name == name {
			return k
		}
	}
	return -1
}

type blockParser struct {
	src    string
	toks   []token
	issues []Issue
}

func (p *blockParser) parse() (Block, bool) {
	name, okName := p.field(p.toks, tagName)
	question, okQuestion := p.field(p.toks, tagQuestion)
	answer, okAnswer := p.field(p.toks, tagAnswer)
	if !okName || !okQuestion || !okAnswer {
		return Block{}, false
	}

	tags, _ := p.field(p.toks, tagTags)
	keywords, _ := p.field(p.toks, tagKeywords)

	return Block{
		Name:     name,
		Question: question,
		Answer:   answer,
		Tags:     tags,
		Keywords: keywords,
		Entities: p.entities(),
	}, true
}

// field returns the trimmed source between the first <tag> in toks and the
// first </tag> after it.
func (p *blockParser) field(toks []token, tag string) (string, bool) {
	for i, t := range toks {
		if t.kind != tokenOpen || t.name != tag {
			continue
		}
		j := findClose(toks, i+1, tag)
		if j < 0 {
			p.issues = append(p.issues, Issue{Offset: t.start, Tag: tag, Err: ErrUnterminatedField})
			return "", false
		}
		return strings.TrimSpace(p.src[t.end:toks[j].start]), true
	}
	return "", false
}

func (p *blockParser) entities() []Entity {
	var out []Entity
	for i := 0; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.kind != tokenOpen || t.name != tagEntity {
			continue
		}
		j := findClose(p.toks, i+1, tagEntity)
		if j < 0 {
			p.issues = append(p.issues, Issue{Offset: t.start, Tag: tagEntity, Err: ErrUnterminatedField})
			break
		}

		inner := p.toks[i+1 : j]
		name, _ := p.field(inner, tagEntityName)
		typ, _ := p.field(inner, tagEntityType)
		if name != "" {
			out = append(out, Entity{Name: name, Type: typ})
		}
		i = j
	}
	return out
}
