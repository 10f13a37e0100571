package newick

import (
	"strings"

	"github.com/TuftsBCB/phylo/tree"
)

// parseMetadata parses the content of an '&'-prefixed comment into
// annotations. Two grammars are recognized:
//
//	&&NHX:key=value:key=value     (New Hampshire eXtended)
//	&key=value,key=value          (FigTree/BEAST)
//
// List values are written {a,b,c} and fill Annotation.Values. Content
// that fits neither grammar yields no annotations; callers fall back
// to storing the raw comment.
func parseMetadata(c string) []tree.Annotation {
	if strings.HasPrefix(c, "&&NHX:") {
		return parseFields(strings.TrimPrefix(c, "&&NHX:"), ':')
	}
	if strings.HasPrefix(c, "&") {
		return parseFields(strings.TrimPrefix(c, "&"), ',')
	}
	return nil
}

func parseFields(s string, sep rune) []tree.Annotation {
	var anns []tree.Annotation
	for _, field := range splitTop(s, sep) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		var a tree.Annotation
		if i := strings.IndexByte(field, '='); i >= 0 {
			a.Name = strings.TrimSpace(field[:i])
			val := strings.TrimSpace(field[i+1:])
			if strings.HasPrefix(val, "{") && strings.HasSuffix(val, "}") {
				for _, item := range splitTop(val[1:len(val)-1], ',') {
					a.Values = append(a.Values, unquoteValue(strings.TrimSpace(item)))
				}
			} else {
				a.Value = unquoteValue(val)
			}
		} else {
			// bare flag, e.g. "&R"-like tokens inside larger comments
			a.Name = field
		}
		anns = append(anns, a)
	}
	return anns
}

// splitTop splits s on sep at nesting depth zero, respecting {...}
// groups and double-quoted spans.
func splitTop(s string, sep rune) []string {
	var parts []string
	depth := 0
	quoted := false
	start := 0
	for i, r := range s {
		switch {
		case quoted:
			if r == '"' {
				quoted = false
			}
		case r == '"':
			quoted = true
		case r == '{':
			depth++
		case r == '}':
			if depth > 0 {
				depth--
			}
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + len(string(r))
		}
	}
	return append(parts, s[start:])
}

func unquoteValue(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
