package datasource

import (
	executable "github.com/hanpama/gramps/internal/executable"
	resolver "github.com/hanpama/gramps/internal/resolver"
)

// CombineStitchingResolvers returns a StitchFunc merging, field by field, the
// stitching resolvers of every source that declares them. Later sources win
// on a field collision. Each call derives its result from info alone.
func CombineStitchingResolvers(sources []*DataSource) executable.StitchFunc {
	withStitching := make([]*Stitching, 0, len(sources))
	for _, s := range sources {
		if s != nil && s.Stitching != nil && s.Stitching.Resolvers != nil {
			withStitching = append(withStitching, s.Stitching)
		}
	}
	return func(info *executable.MergeInfo) resolver.Map {
		out := resolver.Map{}
		for _, s := range withStitching {
			out = out.Merge(s.Resolvers(info))
		}
		return out
	}
}

// LinkTypeDefs gathers the stitching type definitions of sources in order.
func LinkTypeDefs(sources []*DataSource) ([]string, error) {
	var out []string
	for _, s := range sources {
		if s == nil || s.Stitching == nil {
			continue
		}
		defs, err := s.Stitching.LinkTypeDefs.Resolve()
		if err != nil {
			return nil, err
		}
		out = append(out, defs...)
	}
	return out, nil
}
