package matcher

// MerchantIndex provides approximate string-similarity lookups over the
// normalized merchant names of a working set. Names are decomposed into
// character trigrams at build time; distance between two names is
// 1 - Jaccard(trigram sets), so 0 means identical gram sets and 1 means
// nothing shared.
type MerchantIndex struct {
	grams map[string]trigramSet
}

type trigramSet map[string]struct{}

// NewMerchantIndex builds a trigram index over normalized merchant names.
// Duplicate and empty names are tolerated.
func NewMerchantIndex(names []string) *MerchantIndex {
	index := &MerchantIndex{
		grams: make(map[string]trigramSet, len(names)),
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		if _, exists := index.grams[name]; !exists {
			index.grams[name] = trigrams(name)
		}
	}

	return index
}

// Distance returns the trigram distance between a query string and an indexed
// name. Names missing from the index, and empty inputs, are maximally
// distant.
func (mi *MerchantIndex) Distance(query, name string) float64 {
	queryGrams := trigrams(query)
	nameGrams, ok := mi.grams[name]
	if !ok || len(queryGrams) == 0 || len(nameGrams) == 0 {
		return 1.0
	}

	return 1.0 - jaccard(queryGrams, nameGrams)
}

// IsNearNeighbor reports whether an indexed name lies within maxDistance of
// the query.
func (mi *MerchantIndex) IsNearNeighbor(query, name string, maxDistance float64) bool {
	return mi.Distance(query, name) <= maxDistance
}

// Neighbors returns all indexed names within maxDistance of the query
func (mi *MerchantIndex) Neighbors(query string, maxDistance float64) []string {
	queryGrams := trigrams(query)
	if len(queryGrams) == 0 {
		return nil
	}

	var neighbors []string
	for name, nameGrams := range mi.grams {
		if 1.0-jaccard(queryGrams, nameGrams) <= maxDistance {
			neighbors = append(neighbors, name)
		}
	}

	return neighbors
}

// Size returns the number of distinct indexed names
func (mi *MerchantIndex) Size() int {
	return len(mi.grams)
}

// trigrams decomposes a string into its set of character trigrams. The input
// is padded with a leading and trailing space so word boundaries contribute
// grams; strings shorter than a trigram are kept whole.
func trigrams(s string) trigramSet {
	set := make(trigramSet)
	if s == "" {
		return set
	}

	runes := []rune(" " + s + " ")
	if len(runes) < 3 {
		set[string(runes)] = struct{}{}
		return set
	}

	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}

	return set
}

// jaccard computes set overlap: |a ∩ b| / |a ∪ b|
func jaccard(a, b trigramSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	if len(b) < len(a) {
		a, b = b, a
	}

	shared := 0
	for gram := range a {
		if _, ok := b[gram]; ok {
			shared++
		}
	}

	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}

	return float64(shared) / float64(union)
}
