package helper

import "github.com/cuemby/tinymux/pkg/eval"

// RegisterExternFunc installs extern(channel, args...) into e,
// routing it through r. Failure — an unknown channel, a disconnected
// one, or a call error — never propagates as a Go error through the
// evaluator; it renders as the bounded token spec.md §7 names for
// external-helper errors.
func RegisterExternFunc(e *eval.Evaluator, r *Registry) {
	e.Register("extern", 1, -1, func(_ *eval.Evaluator, _ *eval.Context, args []string) string {
		name, rest := args[0], args[1:]
		result, err := r.Call(name, rest)
		if err != nil {
			return "#-1 EXTERNAL ERROR"
		}
		return result
	})
}
