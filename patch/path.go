package patch

import "strings"

// TargetKind classifies a patch path.
type TargetKind int

const (
	UnknownTarget TargetKind = iota
	RootTarget
	NodeTarget
	SubpathTarget
)

func (k TargetKind) String() string {
	switch k {
	case RootTarget:
		return "root"
	case NodeTarget:
		return "node"
	case SubpathTarget:
		return "subpath"
	default:
		return "unknown"
	}
}

// Target is a parsed patch path.
type Target struct {
	Kind TargetKind
	// Key is the node key for NodeTarget and SubpathTarget.
	Key string
	// Segments is the unescaped subpath inside the node.
	Segments []string
}

const nodesPrefix = "/nodes/"

// ParsePath classifies path. Anything other than /root, /nodes/<key> or
// /nodes/<key>/<subpath> is an UnknownTarget, as is an empty key.
func ParsePath(path string) Target {
	if path == "/root" {
		return Target{Kind: RootTarget}
	}
	rest, ok := strings.CutPrefix(path, nodesPrefix)
	if !ok || rest == "" {
		return Target{}
	}
	parts := strings.Split(rest, "/")
	key := unescape(parts[0])
	if key == "" {
		return Target{}
	}
	if len(parts) == 1 {
		return Target{Kind: NodeTarget, Key: key}
	}
	segs := make([]string, len(parts)-1)
	for i, p := range parts[1:] {
		segs[i] = unescape(p)
	}
	return Target{Kind: SubpathTarget, Key: key, Segments: segs}
}

// NodePath returns the path addressing the node key, with segments
// appended.
func NodePath(key string, segments ...string) string {
	var b strings.Builder
	b.WriteString(nodesPrefix)
	b.WriteString(escape(key))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(escape(s))
	}
	return b.String()
}

var (
	unescaper = strings.NewReplacer("~1", "/", "~0", "~")
	escaper   = strings.NewReplacer("~", "~0", "/", "~1")
)

func unescape(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return unescaper.Replace(s)
}

func escape(s string) string {
	return escaper.Replace(s)
}
