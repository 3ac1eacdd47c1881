package analytics

import "slices"

// CategoryCount is a product category with its number of rows
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// frequencyCounter counts keys and remembers the order each key was first seen
type frequencyCounter struct {
	counts map[string]int
	order  []string
}

func newFrequencyCounter() *frequencyCounter {
	return &frequencyCounter{counts: make(map[string]int)}
}

func (c *frequencyCounter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// ranked returns keys by descending count. Equal counts keep first-seen order.
func (c *frequencyCounter) ranked() []CategoryCount {
	out := make([]CategoryCount, len(c.order))
	for i, key := range c.order {
		out[i] = CategoryCount{Category: key, Count: c.counts[key]}
	}
	slices.SortStableFunc(out, func(a, b CategoryCount) int {
		return b.Count - a.Count
	})
	return out
}

func (c *frequencyCounter) top(n int) []CategoryCount {
	ranked := c.ranked()
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopCategories returns the n most frequent product categories.
// Ties are broken by first appearance in row order; empty categories are not counted.
func TopCategories(t *Table, n int) []CategoryCount {
	counter := newFrequencyCounter()
	for _, o := range t.rows() {
		if o.Category == "" {
			continue
		}
		counter.add(o.Category)
	}
	return counter.top(n)
}
