package composition

import "fmt"

// Hint codes. Hints never fail a composition; their messages are advisory
// and only the codes are stable.
const (
	HintOverriddenFieldCanBeRemoved = "OVERRIDDEN_FIELD_CAN_BE_REMOVED"
	HintOverrideDirectiveCanBeRemoved = "OVERRIDE_DIRECTIVE_CAN_BE_REMOVED"
)

// Hint is an advisory produced by a successful composition.
type Hint struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func hintOverriddenFieldCanBeRemoved(coord, source string) *Hint {
	return &Hint{
		Code: HintOverriddenFieldCanBeRemoved,
		Message: fmt.Sprintf(
			"Field %q on subgraph %q is overridden by another subgraph and is no longer resolved here. Consider removing it.",
			coord, source,
		),
	}
}

func hintOverrideDirectiveCanBeRemoved(coord, subgraph, from string) *Hint {
	return &Hint{
		Code: HintOverrideDirectiveCanBeRemoved,
		Message: fmt.Sprintf(
			"Field %q on subgraph %q is marked with @override(from: %q), but subgraph %q does not define it. The directive has no effect and can be removed.",
			coord, subgraph, from, from,
		),
	}
}
