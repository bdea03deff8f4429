package journey

import (
	"fmt"
	"maps"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ActionKind names the kind of a suggested action.
type ActionKind string

// Known action kinds. Any other string is carried as an opaque action.
const (
	ActionTransfer          ActionKind = "transfer"
	ActionAutopay           ActionKind = "autopay"
	ActionPercent           ActionKind = "percent"
	ActionCalcAffordability ActionKind = "calc_affordability"
	ActionUploadDocs        ActionKind = "upload_docs"
)

// Known reports whether k is one of the interpreted action kinds.
func (k ActionKind) Known() bool {
	switch k {
	case ActionTransfer, ActionAutopay, ActionPercent, ActionCalcAffordability, ActionUploadDocs:
		return true
	}
	return false
}

// SuggestedAction is a tagged union over action kinds. Amount is the typed
// payload shared by the known kinds; Params keeps every other key verbatim so
// unknown kinds round-trip untouched.
type SuggestedAction struct {
	Kind   ActionKind
	Amount *float64
	Params map[string]any
}

// NewPercentAction builds a percent-increment action.
func NewPercentAction(amount float64) *SuggestedAction {
	return &SuggestedAction{Kind: ActionPercent, Amount: Float(amount)}
}

// String renders the action for display.
func (a *SuggestedAction) String() string {
	if a == nil {
		return ""
	}
	if a.Amount != nil {
		return fmt.Sprintf("%s %g", a.Kind, *a.Amount)
	}
	return string(a.Kind)
}

func (a SuggestedAction) toMap() map[string]any {
	m := make(map[string]any, len(a.Params)+2)
	maps.Copy(m, a.Params)
	m["action"] = string(a.Kind)
	if a.Amount != nil {
		m["amount"] = *a.Amount
	}
	return m
}

func (a *SuggestedAction) fromMap(raw map[string]any) error {
	*a = SuggestedAction{}
	for k, v := range raw {
		switch k {
		case "action":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("suggested_action.action: want string, got %T", v)
			}
			a.Kind = ActionKind(s)
		case "amount":
			f, ok := toFloat(v)
			if !ok {
				return fmt.Errorf("suggested_action.amount: want number, got %T", v)
			}
			a.Amount = &f
		default:
			if a.Params == nil {
				a.Params = make(map[string]any)
			}
			a.Params[k] = v
		}
	}
	return nil
}

// MarshalJSON flattens the action into {"action": ..., "amount": ..., ...}.
func (a SuggestedAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.toMap())
}

// UnmarshalJSON reads the flat document form.
func (a *SuggestedAction) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return a.fromMap(raw)
}

// MarshalYAML implements yaml.Marshaler.
func (a SuggestedAction) MarshalYAML() (any, error) {
	return a.toMap(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *SuggestedAction) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return a.fromMap(raw)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
