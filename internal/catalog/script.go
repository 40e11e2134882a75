package catalog

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgnsrekt/shadow/practice"
)

// ErrNoDialogue is returned for scripts without any dialogue line.
var ErrNoDialogue = errors.New("script has no dialogue")

// A dialogue line: optional [mm:ss] marker, then "**Name:** text",
// "**Name**: text" or "Name: text".
var dialogueRe = regexp.MustCompile(
	`^(?:\[(\d+):([0-5]\d)\]\s*)?(?:\*\*([^*]+?):\*\*|\*\*([^*]+?)\*\*:|([^:*\[\]]+?):)\s+(.+)$`,
)

// ParseScript reads scenes from a markdown script. Every level one heading
// starts a scene titled after it. Paragraphs hold the dialogue, one line
// each; a line that is not dialogue continues the previous one. Block
// quotes and code blocks are ignored.
func ParseScript(source []byte) ([]practice.Scene, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var (
		scenes  []practice.Scene
		current *practice.Scene
	)
	flush := func() {
		if current != nil && len(current.Lines) > 0 {
			scenes = append(scenes, *current)
		}
		current = nil
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Blockquote, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if n.Level == 1 {
				flush()
				current = &practice.Scene{Title: string(segmentsText(n.Lines(), source))}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if current == nil {
				current = &practice.Scene{}
			}
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				addScriptLine(current, strings.TrimSpace(string(seg.Value(source))))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	flush()

	if len(scenes) == 0 {
		return nil, ErrNoDialogue
	}
	return scenes, nil
}

func addScriptLine(s *practice.Scene, raw string) {
	if raw == "" {
		return
	}
	m := dialogueRe.FindStringSubmatch(raw)
	if m == nil {
		if n := len(s.Lines); n > 0 {
			s.Lines[n-1].Text += " " + raw
		}
		return
	}

	line := practice.DialogueLine{Text: strings.TrimSpace(m[6])}
	for _, name := range m[3:6] {
		if name != "" {
			line.Character = strings.TrimSpace(name)
			break
		}
	}
	if m[1] != "" {
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		d := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
		line.StartTime = &d
	}
	s.Lines = append(s.Lines, line)
}

func segmentsText(lines *text.Segments, source []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return bytes.TrimSpace(buf.Bytes())
}
