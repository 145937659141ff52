// Package filter evaluates CEL expressions against decoded log entries.
//
// Expressions see the variables level, module, index, ts_us, log, text,
// size, wall and json, plus the level names DEBUG through CRITICAL as
// integer constants, for example:
//
//	level >= WARN && module == 4
//	log == "reboot" || text.contains("panic")
package filter

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/cel-go/cel"

	"github.com/mash-protocol/devlog/pkg/log"
)

var levelConsts = map[string]log.Level{
	"DEBUG":    log.LevelDebug,
	"INFO":     log.LevelInfo,
	"WARN":     log.LevelWarn,
	"ERROR":    log.LevelError,
	"CRITICAL": log.LevelCritical,
}

// Filter wraps a compiled CEL program. The zero value and a Filter built
// from an empty expression match every entry.
type Filter struct {
	expr string
	prog cel.Program
}

// Compile parses and type-checks expr. The expression must yield a bool.
func Compile(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{}, nil
	}

	opts := []cel.EnvOption{
		cel.Variable("level", cel.IntType),
		cel.Variable("module", cel.IntType),
		cel.Variable("index", cel.IntType),
		cel.Variable("ts_us", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("log", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("wall", cel.BoolType),
		// Payload parsed as a JSON object; empty for any other payload.
		cel.Variable("json", cel.MapType(cel.StringType, cel.DynType)),
	}
	for name := range levelConsts {
		opts = append(opts, cel.Variable(name, cel.IntType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, err
	}

	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "filter %q", expr)
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return nil, errors.Wrapf(iss2.Err(), "filter %q", expr)
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Newf("filter %q: result is %s, want bool", expr, checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return &Filter{expr: expr, prog: prog}, nil
}

// MustCompile is like Compile but panics on error. For tests and constants.
func MustCompile(expr string) *Filter {
	f, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Enabled reports whether the filter has an expression.
func (f *Filter) Enabled() bool {
	return f != nil && f.prog != nil
}

// Match evaluates the expression for an entry of the named instance.
// An expression that fails at runtime, such as a json field missing from
// the entry, does not match; use has(json.field) to test for presence.
func (f *Filter) Match(name string, e log.Entry) bool {
	if !f.Enabled() {
		return true
	}

	vars := map[string]any{
		"level":  int64(e.Header.Level),
		"module": int64(e.Header.Module),
		"index":  int64(e.Header.Index),
		"ts_us":  e.Header.Timestamp,
		"size":   int64(len(e.Payload)),
		"log":    name,
		"text":   string(e.Payload),
		"wall":   e.Header.WallClock(),
		"json":   payloadObject(e.Payload),
	}
	for k, v := range levelConsts {
		vars[k] = int64(v)
	}

	out, _, err := f.prog.Eval(vars)
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// payloadObject decodes payload as a JSON object, or returns an empty map.
func payloadObject(payload []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}
