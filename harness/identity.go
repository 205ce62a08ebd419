package harness

import (
	"runtime"
	"strings"

	"github.com/gotrs-io/pwharness/session"
)

const unknown = "UNKNOWN"

// Identity locates a test in the trace tree:
// <root>/<Package>/<Class>/<Method>[-<session>].zip
type Identity struct {
	Package string
	Class   string
	Method  string
}

// Segments is the hierarchical trace name for session id when sessions
// sessions are registered. The id suffix is only added when there is more
// than one.
func (i Identity) Segments(id string, sessions int) []string {
	method := orUnknown(i.Method)
	if sessions > 1 {
		method += "-" + id
	}
	return []string{orUnknown(i.Package), orUnknown(i.Class), method}
}

// TracePath is where the trace of session id is saved under root.
func TracePath(root string, i Identity, id string, sessions int) string {
	return session.TraceFile(root, i.Segments(id, sessions)...)
}

// IdentityOf derives an identity from a test name. The top-level test is the
// class and the subtest path is the method; a test without subtests uses its
// own name for both.
func IdentityOf(t interface{ Name() string }, pkg string) Identity {
	class, method, ok := strings.Cut(t.Name(), "/")
	if !ok {
		method = class
	}
	return Identity{
		Package: pkg,
		Class:   class,
		Method:  strings.ReplaceAll(method, "/", "_"),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// callerPackage returns the dotted import path of the function skip frames
// above its caller, e.g. "github.com.acme.shop.e2e".
func callerPackage(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return packageOf(fn.Name())
}

// packageOf strips the function part of a qualified runtime function name.
func packageOf(funcName string) string {
	dir, last := "", funcName
	if i := strings.LastIndex(funcName, "/"); i >= 0 {
		dir, last = funcName[:i+1], funcName[i+1:]
	}
	if i := strings.Index(last, "."); i >= 0 {
		last = last[:i]
	}
	return strings.ReplaceAll(dir+last, "/", ".")
}
