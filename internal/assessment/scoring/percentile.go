package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// DefaultPercentile applies when a score is below every threshold.
const DefaultPercentile = 50

// PercentileTable maps a minimum overall score to a percentile.
type PercentileTable map[int]int

// DefaultPercentileTable is used when no table file is configured.
func DefaultPercentileTable() PercentileTable {
	return PercentileTable{
		0:  5,
		20: 15,
		40: 35,
		50: 50,
		60: 62,
		70: 75,
		80: 87,
		90: 95,
		95: 99,
	}
}

// Lookup walks thresholds ascending and keeps the percentile of the highest
// threshold not exceeding score.
func (t PercentileTable) Lookup(score int) int {
	thresholds := make([]int, 0, len(t))
	for k := range t {
		thresholds = append(thresholds, k)
	}
	sort.Ints(thresholds)

	percentile := DefaultPercentile
	for _, k := range thresholds {
		if score >= k {
			percentile = t[k]
		}
	}
	return clamp(percentile)
}

// Validate checks the table is monotonic and within 0-100.
func (t PercentileTable) Validate() error {
	thresholds := make([]int, 0, len(t))
	for k := range t {
		thresholds = append(thresholds, k)
	}
	sort.Ints(thresholds)

	prev := -1
	for _, k := range thresholds {
		p := t[k]
		if k < 0 || k > 100 || p < 0 || p > 100 {
			return fmt.Errorf("percentile table entry %d:%d out of range", k, p)
		}
		if p < prev {
			return fmt.Errorf("percentile table not monotonic at threshold %d", k)
		}
		prev = p
	}
	return nil
}

// LoadPercentileTable reads a JSON object of "threshold": percentile pairs.
func LoadPercentileTable(path string) (PercentileTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read percentile table: %w", err)
	}
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse percentile table: %w", err)
	}
	table := make(PercentileTable, len(raw))
	for k, v := range raw {
		threshold, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("percentile threshold %q: %w", k, err)
		}
		table[threshold] = v
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
