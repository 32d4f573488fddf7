// Package query applies one free-text instruction to a table.
//
// An instruction is classified by keyword containment against an ordered rule
// list; the first rule whose keyword appears wins:
//
//	remove missing values > remove duplicates > filter > rename > sort > aggregate
//
// Every call yields an Outcome. Failures never escape as errors or panics;
// they come back as an Outcome carrying the input table and a message.
package query

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Kind identifies which operation an instruction was classified as.
type Kind int

const (
	KindNone Kind = iota
	KindDropMissing
	KindDedupe
	KindFilter
	KindRename
	KindSort
	KindAggregate
)

var kindNames = map[Kind]string{
	KindNone:        "none",
	KindDropMissing: "drop_missing",
	KindDedupe:      "dedupe",
	KindFilter:      "filter",
	KindRename:      "rename",
	KindSort:        "sort",
	KindAggregate:   "aggregate",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Outcome is the result of one instruction.
type Outcome struct {
	// Table is the new table when Applied, otherwise the input table.
	Table   dataframe.DataFrame
	Message string
	Kind    Kind
	Applied bool
	// Err is nil on success and on no match.
	Err error
}

// Messages shown to the user.
const (
	msgNoMatch       = "No valid query found. Please try again."
	msgMissing       = "Missing values removed."
	msgDuplicates    = "Duplicates removed."
	msgRenameFormat  = "Invalid rename query. Use format: 'rename old_name to new_name'."
	msgProcessingErr = "Error processing query: %v"
)

// request is one instruction as typed plus its lower-cased copy.
type request struct {
	raw   string
	lower string
}

// after returns the original-case operand text following kw.
func (r request) after(kw string) string {
	if s := afterKeyword(r.raw, kw); s != "" || indexFold(r.raw, kw) >= 0 {
		return s
	}
	// keyword only found after case folding changed byte offsets
	if i := strings.Index(r.lower, kw); i >= 0 {
		return strings.TrimSpace(r.lower[i+len(kw):])
	}
	return ""
}

// handler applies one rule. It returns errNotApplicable to defer to the next rule.
type handler func(t *Transformer, df dataframe.DataFrame, req request) (dataframe.DataFrame, string, error)

type rule struct {
	kind    Kind
	keyword string
	apply   handler
}

// failure carries the user message for an operation that was recognized but
// could not be applied.
type failure struct {
	msg string
	err error
}

func (f *failure) Error() string { return f.msg }
func (f *failure) Unwrap() error { return f.err }

func fail(err error, format string, args ...interface{}) error {
	return &failure{msg: fmt.Sprintf(format, args...), err: err}
}

// Transformer dispatches instructions over an ordered rule list.
type Transformer struct {
	log   *slog.Logger
	rules []rule
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger used for classification and failure records.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.log = l
		}
	}
}

// New returns a Transformer with the standard rule order.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		log: slog.Default(),
		rules: []rule{
			{KindDropMissing, "remove missing values", applyDropMissing},
			{KindDedupe, "remove duplicates", applyDedupe},
			{KindFilter, "filter", applyFilter},
			{KindRename, "rename", applyRename},
			{KindSort, "sort", applySort},
			{KindAggregate, "aggregate", applyAggregate},
		},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

var std = New()

// Transform applies instruction to df with the default Transformer.
func Transform(df dataframe.DataFrame, instruction string) Outcome {
	return std.Transform(df, instruction)
}

// Classify returns the kind of the first rule whose keyword occurs in the
// instruction, or KindNone.
func (t *Transformer) Classify(instruction string) Kind {
	lower := strings.ToLower(strings.TrimSpace(instruction))
	for _, r := range t.rules {
		if strings.Contains(lower, r.keyword) {
			return r.kind
		}
	}
	return KindNone
}

// Transform applies one instruction. The input table is never modified.
func (t *Transformer) Transform(df dataframe.DataFrame, instruction string) (out Outcome) {
	req := request{raw: strings.TrimSpace(instruction)}
	req.lower = strings.ToLower(req.raw)
	kind := KindNone

	defer func() {
		if r := recover(); r != nil {
			t.log.Warn("query panicked", "kind", kind, "instruction", req.raw, "panic", r)
			out = Outcome{
				Table:   df,
				Message: fmt.Sprintf(msgProcessingErr, r),
				Kind:    kind,
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if df.Err != nil {
		return Outcome{Table: df, Message: fmt.Sprintf(msgProcessingErr, df.Err), Err: df.Err}
	}

	for _, r := range t.rules {
		if !strings.Contains(req.lower, r.keyword) {
			continue
		}
		kind = r.kind
		t.log.Debug("query classified", "kind", kind, "instruction", req.raw)
		res, msg, err := r.apply(t, df, req)
		if errors.Is(err, errNotApplicable) {
			t.log.Debug("rule not applicable", "kind", kind)
			continue
		}
		if err != nil {
			t.log.Warn("query failed", "kind", kind, "instruction", req.raw, "error", err)
			o := Outcome{Table: df, Message: err.Error(), Kind: kind, Err: err}
			var f *failure
			if errors.As(err, &f) {
				o.Err = f.err
			}
			return o
		}
		return Outcome{Table: res, Message: msg, Kind: kind, Applied: true}
	}
	return Outcome{Table: df, Message: msgNoMatch, Kind: KindNone}
}
