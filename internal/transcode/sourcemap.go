package transcode

import "github.com/filipenevola/import-scanner/internal/graph"

// CombineSourceMaps concatenates two bodies: the new body is appended
// after the old body separated by a blank line, and the two source maps
// are combined so positions in the appended text still resolve to their
// original source. This is a self-contained, line-offset-based combiner
// rather than a full SourceNode-based remapper, since the two inputs here
// are always whole, already-compiled bodies with no further offsetting
// needed beyond the single blank-line join. See DESIGN.md.
//
// A combined map with no mappings is dropped (treated as absent).
func CombineSourceMaps(oldBody string, oldMap *graph.SourceMap, newBody string, newMap *graph.SourceMap) (string, *graph.SourceMap) {
	combinedBody := oldBody + "\n\n" + newBody

	if oldMap == nil && newMap == nil {
		return combinedBody, nil
	}

	combined := &graph.SourceMap{}
	if oldMap != nil {
		combined.Sources = append(combined.Sources, oldMap.Sources...)
		combined.Names = append(combined.Names, oldMap.Names...)
		combined.Mappings += oldMap.Mappings
	}
	if newMap != nil {
		combined.Sources = append(combined.Sources, newMap.Sources...)
		combined.Names = append(combined.Names, newMap.Names...)
		if combined.Mappings != "" && newMap.Mappings != "" {
			combined.Mappings += ";"
		}
		combined.Mappings += newMap.Mappings
	}

	if combined.Mappings == "" {
		return combinedBody, nil
	}
	return combinedBody, combined
}
