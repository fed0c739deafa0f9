package sources

import (
	"path"
	"strings"
)

// MergedName returns the default output name for an input file or object:
// "daily/clusters.csv" becomes "daily/clusters.merged.csv".
func MergedName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + ".merged" + ext
}
