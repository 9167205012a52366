package csl

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// ParseStyle walks the etree DOM of a CSL style document and constructs
// the typed style representation. Unknown elements and attributes are
// reported as warnings and skipped so that a style failing strict schema
// validation still renders best-effort.
func ParseStyle(doc *etree.Document, log *zap.Logger) (*Style, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if root.Tag != "style" {
		return nil, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	style := &Style{
		Class:         root.SelectAttrValue("class", "in-text"),
		DefaultLocale: root.SelectAttrValue("default-locale", ""),
		Options:       attributes(root),
		Macros:        make(map[string]*Element),
	}

	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "info":
			// style metadata carries nothing the renderer needs
		case "locale":
			style.Locales = append(style.Locales, ParseLocale(child, log))
		case "macro":
			name := child.SelectAttrValue("name", "")
			if name == "" {
				log.Warn("Macro without a name, ignoring")
				continue
			}
			style.Macros[name] = parseContainer(KindMacro, child, log)
		case "citation":
			area, err := parseArea(child, log)
			if err != nil {
				return nil, fmt.Errorf("citation: %w", err)
			}
			style.Citation = area
		case "bibliography":
			area, err := parseArea(child, log)
			if err != nil {
				return nil, fmt.Errorf("bibliography: %w", err)
			}
			style.Bibliography = area
		default:
			log.Warn("Unexpected tag in style, ignoring", zap.String("parent", root.Tag), zap.String("tag", child.Tag))
		}
	}

	if style.Citation == nil {
		return nil, fmt.Errorf("style defines no citation element")
	}
	return style, nil
}

func parseArea(el *etree.Element, log *zap.Logger) (*Area, error) {
	area := &Area{Options: attributes(el)}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "layout":
			area.Layout = parseContainer(KindLayout, child, log)
		case "sort":
			area.Sort = parseContainer(KindSort, child, log)
		default:
			log.Warn("Unexpected tag, ignoring", zap.String("parent", el.Tag), zap.String("tag", child.Tag))
		}
	}
	if area.Layout == nil {
		return nil, fmt.Errorf("missing layout")
	}
	return area, nil
}

// parseElement converts one rendering element subtree; it returns nil
// for tags outside the closed element set.
func parseElement(el *etree.Element, log *zap.Logger) *Element {
	kind, ok := kindByTag[el.Tag]
	if !ok {
		log.Warn("Unknown rendering element, ignoring", zap.String("tag", el.Tag))
		return nil
	}
	return parseContainer(kind, el, log)
}

func parseContainer(kind Kind, el *etree.Element, log *zap.Logger) *Element {
	node := &Element{Kind: kind, Attrs: attributes(el)}
	for _, child := range el.ChildElements() {
		if parsed := parseElement(child, log); parsed != nil {
			node.Children = append(node.Children, parsed)
		}
	}
	return node
}

// attributes flattens the element attribute list into a map. Namespaced
// attributes keep their prefix ("xml:lang"); xmlns declarations are
// dropped.
func attributes(el *etree.Element) map[string]string {
	attrs := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		key := a.Key
		if a.Space != "" {
			key = a.Space + ":" + a.Key
		}
		attrs[key] = a.Value
	}
	return attrs
}
