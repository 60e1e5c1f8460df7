// Package scenepath builds the normalized hierarchy keys used to pair
// animation objects with model objects.
package scenepath

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NamespaceSep separates namespace qualifiers from object names ("ns:name").
const NamespaceSep = ":"

// StripNamespace removes every namespace qualifier from name.
func StripNamespace(name string) string {
	if i := strings.LastIndex(name, NamespaceSep); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Namespace returns the outermost namespace of name, or "" if unqualified.
func Namespace(name string) string {
	if i := strings.Index(name, NamespaceSep); i >= 0 {
		return name[:i]
	}
	return ""
}

// Qualify prefixes name with namespace, replacing any existing qualifier.
func Qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + NamespaceSep + StripNamespace(name)
}

// Key joins namespace-stripped names into a lookup key. A non-empty asset is
// prefixed so equal paths from different assets stay distinct.
func Key(names []string, asset string) string {
	var b strings.Builder
	if asset != "" {
		b.WriteString(norm.NFC.String(asset))
	}
	for _, n := range names {
		b.WriteByte('/')
		b.WriteString(norm.NFC.String(StripNamespace(n)))
	}
	return b.String()
}

// AssetName derives an asset name from a file path: its base name without
// extension.
func AssetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
