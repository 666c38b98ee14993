package engine

import (
	"fmt"
	"strings"
)

// Strategy selects the search variant.
type Strategy string

const (
	// StrategyNaive relaxes XSS complements and retries failures.
	StrategyNaive Strategy = "naive"

	// StrategySmart adds GenFilter: failing sub-combinations of a failed
	// remainder are memoized and their supersets pruned without a probe.
	StrategySmart Strategy = "smart"

	// StrategyMBS relaxes the whole query best-first and skips probing
	// candidates that still contain an intact MFS.
	StrategyMBS Strategy = "mbs"
)

// Strategies lists every strategy in documentation order.
var Strategies = []Strategy{StrategyNaive, StrategySmart, StrategyMBS}

// ParseStrategy parses a strategy name, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StrategyNaive, StrategySmart, StrategyMBS:
		return st, nil
	case "":
		return StrategySmart, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want naive, smart or mbs)", s)
}

// String implements fmt.Stringer.
func (s Strategy) String() string {
	return string(s)
}
