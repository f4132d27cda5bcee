package ir

import (
	"fmt"
	"strings"
)

// Version is the rule-set schema version understood by the loader.
const Version = "1"

// Rule is one condition→conclusion entry of a rule set.
type Rule struct {
	Name       string    `json:"name"`
	Condition  Condition `json:"condition"`
	Analysis   string    `json:"analysis"`
	Conclusion string    `json:"conclusion"`
	Risk       string    `json:"risk,omitempty"`
	NextSteps  string    `json:"next_steps,omitempty"`
}

// Clause is a single key=value requirement of a condition.
type Clause struct {
	Key   string
	Value string
}

// Condition is the ordered AND of its clauses. An empty condition always holds.
type Condition []Clause

// Keys returns the fact keys referenced by the condition, in order.
func (c Condition) Keys() []string {
	out := make([]string, 0, len(c))
	for _, cl := range c {
		out = append(out, cl.Key)
	}
	return out
}

// Sections holds the six computed slots of a dictamen.
type Sections struct {
	Hechos     string `json:"hechos"`
	Cuestiones string `json:"cuestiones"`
	Analisis   string `json:"analisis"`
	Conclusion string `json:"conclusion"`
	Riesgos    string `json:"riesgos"`
	Pasos      string `json:"pasos"`
}

// Dictamen is the outcome of one evaluation: the rendered report and its digest.
type Dictamen struct {
	Facts          FactSet  `json:"facts"`
	Triggered      []string `json:"triggered"`
	Sections       Sections `json:"sections"`
	Text           string   `json:"text"`
	Digest         string   `json:"sha256"`
	RuleSetVersion string   `json:"rule_set_version,omitempty"`
}

// LoadError reports a malformed or unreadable rule or template source.
// Index is the offending record (0-based) or -1 when the whole source is at fault.
type LoadError struct {
	Source string
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	sb.WriteString("load ")
	if e.Source != "" {
		sb.WriteString(e.Source)
	} else {
		sb.WriteString("<input>")
	}
	if e.Index >= 0 {
		fmt.Fprintf(&sb, ": record %d", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, ": field %q", e.Field)
	}
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *LoadError) Unwrap() error { return e.Err }
