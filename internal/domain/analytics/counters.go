package analytics

import "strings"

// Count is one named counter value.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Label turns a snake_case counter name into a title-cased label.
func (c Count) Label() string {
	words := strings.Split(c.Name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Counters is a fixed-schema name -> count mapping. Names are set at construction and
// values only grow.
type Counters struct {
	order  []string
	values map[string]int
}

func newCounters(names []string) *Counters {
	c := &Counters{values: make(map[string]int, len(names))}
	for _, name := range names {
		if _, ok := c.values[name]; ok {
			continue
		}
		c.values[name] = 0
		c.order = append(c.order, name)
	}
	return c
}

// add increments a known counter. Unknown names and non-positive deltas are ignored so
// the schema stays fixed and values never decrease.
func (c *Counters) add(name string, n int) {
	if n <= 0 {
		return
	}
	if _, ok := c.values[name]; !ok {
		return
	}
	c.values[name] += n
}

// Get returns the value of a counter, zero for unknown names.
func (c *Counters) Get(name string) int {
	return c.values[name]
}

func (c *Counters) snapshot() map[string]int {
	out := make(map[string]int, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func (c *Counters) nonZero() []Count {
	var out []Count
	for _, name := range c.order {
		if v := c.values[name]; v > 0 {
			out = append(out, Count{Name: name, Count: v})
		}
	}
	return out
}

func (c *Counters) anyNonZero() bool {
	for _, v := range c.values {
		if v > 0 {
			return true
		}
	}
	return false
}

// MetricCounters groups the three counter families of one conversation.
type MetricCounters struct {
	Performance *Counters
	Issues      *Counters
	Strengths   *Counters
}

func newMetricCounters(signals []Signal) *MetricCounters {
	perf, strengths, issues := schema(signals)
	return &MetricCounters{
		Performance: newCounters(perf),
		Issues:      newCounters(issues),
		Strengths:   newCounters(strengths),
	}
}
