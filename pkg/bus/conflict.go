package bus

import (
	"encoding/json"
	"fmt"
	"sort"
)

// resolveByConsensus intersects keys across all candidates, keeping a key
// in the result only when every candidate's stringified value agrees. An
// empty intersection falls back to the first candidate unchanged.
func resolveByConsensus(candidates []map[string]any) map[string]any {
	common := commonKeys(candidates)
	result := make(map[string]any)
	for _, key := range common {
		first := stringify(candidates[0][key])
		agree := true
		for _, c := range candidates[1:] {
			if stringify(c[key]) != first {
				agree = false
				break
			}
		}
		if agree {
			result[key] = candidates[0][key]
		}
	}
	if len(result) == 0 {
		return candidates[0]
	}
	return result
}

// resolveByMajority canonically serializes (sorted keys) each candidate
// and returns the value occurring most often, ties broken by first
// occurrence — a deterministic analogue of Python's Counter.most_common(1).
func resolveByMajority(candidates []map[string]any) map[string]any {
	var order []string
	counts := make(map[string]int)
	bySerial := make(map[string]map[string]any)

	for _, c := range candidates {
		s := canonicalize(c)
		if _, seen := counts[s]; !seen {
			order = append(order, s)
			bySerial[s] = c
		}
		counts[s]++
	}

	best := order[0]
	for _, s := range order[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return bySerial[best]
}

// calculateConfidence averages, over all candidates, the fraction of keys
// common with `chosen` whose values also match, capped at 1.0.
func calculateConfidence(candidates []map[string]any, chosen map[string]any) float64 {
	if len(candidates) == 0 {
		return 0
	}
	var total float64
	for _, c := range candidates {
		common := 0
		matching := 0
		for key, val := range chosen {
			if cv, ok := c[key]; ok {
				common++
				if stringify(cv) == stringify(val) {
					matching++
				}
			}
		}
		if common > 0 {
			total += float64(matching) / float64(common)
		}
	}
	score := total / float64(len(candidates))
	if score > 1 {
		score = 1
	}
	return score
}

func commonKeys(candidates []map[string]any) []string {
	if len(candidates) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, c := range candidates {
		for k := range c {
			counts[k]++
		}
	}
	var out []string
	for k, n := range counts {
		if n == len(candidates) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}

func canonicalize(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]struct {
		K string
		V any
	}, len(keys))
	for i, k := range keys {
		ordered[i] = struct {
			K string
			V any
		}{k, m[k]}
	}
	b, err := json.Marshal(ordered)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(b)
}
