package tree

import (
	"fmt"
	"strings"
)

// MergeStrategy selects which kinds of conflicts Merge tolerates. The numeric values are part of
// the external contract and must not change.
type MergeStrategy int

const (
	MergeDefault                MergeStrategy = 0
	MergeError                  MergeStrategy = 1
	MergeAllowOverwriteConflict MergeStrategy = 2
	MergeAllowCreationConflict  MergeStrategy = 4
	MergeAllowDeleteConflict    MergeStrategy = 8

	MergeContentOnly = MergeAllowOverwriteConflict
	MergeOverwrite   = MergeAllowOverwriteConflict | MergeAllowCreationConflict | MergeAllowDeleteConflict
)

var strategyNames = map[string]MergeStrategy{
	"default":                  MergeDefault,
	"error":                    MergeError,
	"content-only":             MergeContentOnly,
	"overwrite":                MergeOverwrite,
	"allow-overwrite-conflict": MergeAllowOverwriteConflict,
	"allow-creation-conflict":  MergeAllowCreationConflict,
	"allow-delete-conflict":    MergeAllowDeleteConflict,
}

// StrategyNames lists the names accepted by ParseMergeStrategy.
var StrategyNames = []string{"default", "error", "content-only", "overwrite", "allow-overwrite-conflict", "allow-creation-conflict", "allow-delete-conflict"}

func ParseMergeStrategy(name string) (MergeStrategy, error) {
	if name == "" {
		return MergeDefault, nil
	}
	s, ok := strategyNames[strings.ToLower(name)]
	if !ok {
		return MergeDefault, fmt.Errorf("unknown merge strategy %q (available options: [%s])", name, strings.Join(StrategyNames, ", "))
	}
	return s, nil
}

func (s MergeStrategy) Allows(flag MergeStrategy) bool {
	return s&flag == flag
}

func (s MergeStrategy) String() string {
	switch s {
	case MergeDefault:
		return "default"
	case MergeError:
		return "error"
	case MergeContentOnly:
		return "content-only"
	case MergeOverwrite:
		return "overwrite"
	}

	var parts []string
	for _, name := range []string{"error", "allow-overwrite-conflict", "allow-creation-conflict", "allow-delete-conflict"} {
		if flag := strategyNames[name]; s.Allows(flag) {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}
