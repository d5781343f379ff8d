package policy

import "github.com/sumire/devtrack/internal/domain"

// Decision is the outcome of evaluating an action. When Allowed, Fields is
// the set of payload keys the actor may set (nil for actions without a
// payload) and Required lists keys that must be present.
type Decision struct {
	Allowed  bool
	Reason   string
	Fields   domain.Fields
	Required domain.Fields
}

// Err returns nil for an allowed decision and an access denied error
// carrying the reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.Denied(d.Reason)
}

// CheckFields rejects a payload that sets a field outside the allowed set
// or omits a required one. It must only be called on allowed decisions.
func (d Decision) CheckFields(present domain.Fields) error {
	if extra := present.Outside(d.Fields); len(extra) > 0 {
		return &domain.ValidationError{Field: extra[0], Message: "field may not be set"}
	}
	for _, k := range d.Required {
		if !present.Has(k) {
			return &domain.ValidationError{Field: k, Message: "field is required"}
		}
	}
	return nil
}

func allow() Decision {
	return Decision{Allowed: true}
}

func allowFields(fields domain.Fields) Decision {
	return Decision{Allowed: true, Fields: fields}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}
