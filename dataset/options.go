package dataset

import "sort"

// Years returns the distinct years present in rows, ascending.
func Years(rows []Daily) []int {
	seen := make(map[int]bool)
	var out []int
	for _, d := range rows {
		y := d.Year()
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	sort.Ints(out)
	return out
}

// Provinces returns the distinct non-empty provinces, sorted.
func Provinces(rows []Daily) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range rows {
		if d.Province != "" && !seen[d.Province] {
			seen[d.Province] = true
			out = append(out, d.Province)
		}
	}
	sort.Strings(out)
	return out
}

// Municipalities returns the distinct municipality names of a province,
// sorted. An empty province returns every municipality.
func Municipalities(rows []Daily, province string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range rows {
		if province != "" && d.Province != province {
			continue
		}
		if d.Name != "" && !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d.Name)
		}
	}
	sort.Strings(out)
	return out
}
