package directive

// SearchKeywords returns every [검색어:...] value found anywhere in the raw
// script, in order of first appearance with duplicates removed.
func SearchKeywords(script string) []string {
	return collectForeign(script, TagKeyword)
}

// ForeignValues returns the values of the given foreign tags across the whole
// script, in source order with duplicates removed.
func ForeignValues(script string, tags ...string) []string {
	return collectForeign(script, tags...)
}

func collectForeign(script string, tags ...string) []string {
	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[canonicalTag(tag)] = struct{}{}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, d := range Scan(Normalize(script)) {
		if d.Kind != KindForeign || d.Value == "" {
			continue
		}
		if _, ok := wanted[d.Tag]; !ok {
			continue
		}
		if _, dup := seen[d.Value]; dup {
			continue
		}
		seen[d.Value] = struct{}{}
		out = append(out, d.Value)
	}
	return out
}
