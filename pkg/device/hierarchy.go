package device

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	errs "igdroid/pkg/errors"
)

// Bounds is a node's on-screen rectangle in pixels.
type Bounds struct {
	Left, Top, Right, Bottom int
}

// Center returns the midpoint of the rectangle, the tap target for clicks.
func (b Bounds) Center() (int, int) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

// Width returns the rectangle width.
func (b Bounds) Width() int { return b.Right - b.Left }

// Height returns the rectangle height.
func (b Bounds) Height() int { return b.Bottom - b.Top }

// Hierarchy dumps encode bounds as "[left,top][right,bottom]".
var boundsPattern = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

func parseBounds(s string) (Bounds, bool) {
	m := boundsPattern.FindStringSubmatch(s)
	if m == nil {
		return Bounds{}, false
	}
	vals := make([]int, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Bounds{}, false
		}
		vals[i] = v
	}
	return Bounds{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}, true
}

// uiNode is one element of the dumped accessibility tree.
type uiNode struct {
	ResourceID string   `xml:"resource-id,attr"`
	Text       string   `xml:"text,attr"`
	Desc       string   `xml:"content-desc,attr"`
	Class      string   `xml:"class,attr"`
	Package    string   `xml:"package,attr"`
	BoundsRaw  string   `xml:"bounds,attr"`
	Clickable  bool     `xml:"clickable,attr"`
	Enabled    bool     `xml:"enabled,attr"`
	Nodes      []uiNode `xml:"node"`
}

type hierarchy struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []uiNode `xml:"node"`
}

func parseHierarchy(data []byte) (*hierarchy, error) {
	var h hierarchy
	if err := xml.Unmarshal(data, &h); err != nil {
		return nil, errs.Newf(errs.ErrorTypeProbe, "device.parseHierarchy", "malformed hierarchy dump: %v", err)
	}
	return &h, nil
}

// Selector matches nodes in a hierarchy snapshot. All set fields must
// match; Index picks the nth node among those that do.
type Selector struct {
	ResourceID   string
	Text         string
	TextContains string
	Desc         string
	DescContains string
	ClassName    string
	Index        int
}

func (s Selector) empty() bool {
	return s.ResourceID == "" && s.Text == "" && s.TextContains == "" &&
		s.Desc == "" && s.DescContains == "" && s.ClassName == ""
}

// String renders the set fields for log messages.
func (s Selector) String() string {
	var parts []string
	if s.ResourceID != "" {
		parts = append(parts, "id="+s.ResourceID)
	}
	if s.Text != "" {
		parts = append(parts, "text="+s.Text)
	}
	if s.TextContains != "" {
		parts = append(parts, "text*="+s.TextContains)
	}
	if s.Desc != "" {
		parts = append(parts, "desc="+s.Desc)
	}
	if s.DescContains != "" {
		parts = append(parts, "desc*="+s.DescContains)
	}
	if s.ClassName != "" {
		parts = append(parts, "class="+s.ClassName)
	}
	if s.Index > 0 {
		parts = append(parts, "index="+strconv.Itoa(s.Index))
	}
	return strings.Join(parts, " ")
}

// matchesResourceID accepts either the fully qualified id
// ("com.instagram.android:id/row_load_more_button") or the bare id name
// so selector tables stay readable.
func matchesResourceID(nodeID, want string) bool {
	if nodeID == want {
		return true
	}
	return strings.HasSuffix(nodeID, ":id/"+want)
}

func (s Selector) matches(n *uiNode) bool {
	if s.empty() {
		return false
	}
	if s.ResourceID != "" && !matchesResourceID(n.ResourceID, s.ResourceID) {
		return false
	}
	if s.Text != "" && n.Text != s.Text {
		return false
	}
	if s.TextContains != "" && !strings.Contains(n.Text, s.TextContains) {
		return false
	}
	if s.Desc != "" && n.Desc != s.Desc {
		return false
	}
	if s.DescContains != "" && !strings.Contains(n.Desc, s.DescContains) {
		return false
	}
	if s.ClassName != "" && n.Class != s.ClassName {
		return false
	}
	return true
}

// walk visits every node depth-first in document order.
func (h *hierarchy) walk(fn func(*uiNode)) {
	var visit func(nodes []uiNode)
	visit = func(nodes []uiNode) {
		for i := range nodes {
			fn(&nodes[i])
			visit(nodes[i].Nodes)
		}
	}
	visit(h.Nodes)
}

// find returns every node matching the selector's criteria, ignoring Index.
func (h *hierarchy) find(sel Selector) []*uiNode {
	var out []*uiNode
	h.walk(func(n *uiNode) {
		if sel.matches(n) {
			out = append(out, n)
		}
	})
	return out
}

// first applies Index on top of find.
func (h *hierarchy) first(sel Selector) (*uiNode, bool) {
	matches := h.find(sel)
	if sel.Index < 0 || sel.Index >= len(matches) {
		return nil, false
	}
	return matches[sel.Index], true
}
