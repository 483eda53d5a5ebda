package junit

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// node is a generic XML element. JUnit dialects disagree on nesting and
// attributes, so documents are decoded into a tree and queried the way an
// element tree would be, preserving document order.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func decode(doc []byte) (*node, error) {
	var root node
	if err := xml.NewDecoder(bytes.NewReader(doc)).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: decoding JUnit XML: %v", model.ErrFormatMismatch, err)
	}
	return &root, nil
}

func (n *node) tag() string {
	return n.XMLName.Local
}

// attr returns the named attribute and whether it was present.
func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) attrOr(name, fallback string) string {
	if v, ok := n.attr(name); ok {
		return v
	}
	return fallback
}

// children returns the direct children with the given tag.
func (n *node) children(tag string) []*node {
	var out []*node
	for i := range n.Children {
		if n.Children[i].tag() == tag {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// descendants returns every element below n with the given tag, depth first
// in document order.
func (n *node) descendants(tag string) []*node {
	var out []*node
	for i := range n.Children {
		c := &n.Children[i]
		if c.tag() == tag {
			out = append(out, c)
		}
		out = append(out, c.descendants(tag)...)
	}
	return out
}

func (n *node) intAttr(name string) (int, error) {
	v, ok := n.attr(name)
	if !ok {
		return 0, fmt.Errorf("%w: <%s> has no %q attribute", model.ErrFormatMismatch, n.tag(), name)
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: <%s %s=%q> is not an integer", model.ErrFormatMismatch, n.tag(), name, v)
	}
	return i, nil
}

func (n *node) floatAttr(name string) (float64, error) {
	v, ok := n.attr(name)
	if !ok {
		return 0, fmt.Errorf("%w: <%s> has no %q attribute", model.ErrFormatMismatch, n.tag(), name)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("%w: <%s %s=%q> is not a duration in seconds", model.ErrFormatMismatch, n.tag(), name, v)
	}
	return f, nil
}

// timestampLayouts are tried in order. Timestamps without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (n *node) timeAttr(name string) (time.Time, error) {
	v, ok := n.attr(name)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: <%s> has no %q attribute", model.ErrFormatMismatch, n.tag(), name)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(v), time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: <%s %s=%q> is not an ISO 8601 timestamp", model.ErrFormatMismatch, n.tag(), name, v)
}

// seconds converts a fractional second count to a duration, rounded to the
// nearest nanosecond.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
