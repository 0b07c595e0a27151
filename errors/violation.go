package errors

import "fmt"

// Violation describes one problem found in a builder slot or graph field.
type Violation struct {
	Slot    string `json:"slot"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Message != "" {
		return fmt.Sprintf("%s: %s", v.Slot, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Slot, v.Reason)
}
