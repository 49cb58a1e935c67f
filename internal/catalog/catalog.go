// Package catalog holds the static tables of dangerous symbols and textual
// patterns that the analysis variants check against. Pure data; nothing here
// mutates after package init.
package catalog

import (
	"regexp"

	"github.com/rce-engine/analysis-worker/internal/model"
)

// Function describes one dangerous standalone function.
type Function struct {
	Severity model.Severity
	Reason   string
}

// PythonFunctions maps bare function names to their risk classification.
var PythonFunctions = map[string]Function{
	"eval":       {model.Critical, "eval() can execute arbitrary code"},
	"exec":       {model.Critical, "exec() can execute arbitrary code"},
	"compile":    {model.High, "compile() can be used to execute dynamic code"},
	"__import__": {model.High, "Dynamic imports can be dangerous"},
	"input":      {model.Low, "input() blocks execution"},
}

// PythonModules maps canonical top-level module names to the set of their
// dangerous methods. Lookups happen after import-alias resolution.
var PythonModules = map[string]map[string]bool{
	"os":         set("system", "popen", "spawn", "exec", "remove", "rmdir", "unlink"),
	"subprocess": set("call", "run", "Popen", "check_output", "check_call"),
	"socket":     set("socket", "connect", "bind", "listen"),
	"requests":   set("get", "post", "put", "delete"),
	"urllib":     set("urlopen", "urlretrieve"),
	"shutil":     set("rmtree", "move", "copy"),
	"pickle":     set("load", "loads"),
}

// Pattern is one dangerous textual shape scanned for by the heuristic
// variant. Every non-overlapping match emits one risk.
type Pattern struct {
	Regexp   *regexp.Regexp
	Severity model.Severity
	Message  string
}

// JavaScriptPatterns is scanned in order; risk order in a report follows
// this order, then match position within each pattern.
var JavaScriptPatterns = []Pattern{
	{regexp.MustCompile(`\beval\s*\(`), model.Critical, "eval() can execute arbitrary code"},
	{regexp.MustCompile(`\bFunction\s*\(`), model.Critical, "Function constructor can execute arbitrary code"},
	{regexp.MustCompile(`\bsetTimeout\s*\([^,]+,\s*["']`), model.Medium, "setTimeout with string argument can execute code"},
	{regexp.MustCompile(`\bsetInterval\s*\([^,]+,\s*["']`), model.Medium, "setInterval with string argument can execute code"},
	{regexp.MustCompile(`innerHTML\s*=`), model.Medium, "innerHTML can lead to XSS vulnerabilities"},
	{regexp.MustCompile(`document\.write\s*\(`), model.Medium, "document.write can be a security risk"},
	{regexp.MustCompile(`\brequire\s*\(\s*["']child_process`), model.Critical, "child_process module can execute system commands"},
	{regexp.MustCompile(`\brequire\s*\(\s*["']fs`), model.High, "fs module can access the file system"},
	{regexp.MustCompile(`process\.exit`), model.High, "process.exit can terminate the process"},
	{regexp.MustCompile(`__dirname|__filename`), model.Low, "File path exposure"},
}

// Heuristic metric patterns for JavaScript. Counts may over- or undercount;
// that imprecision is accepted for the pattern variant.
var (
	JavaScriptFunctionRe    = regexp.MustCompile(`(?:function\s+\w+|(?:const|let|var)\s+\w+\s*=\s*(?:async\s+)?(?:function|\([^)]*\)\s*=>|\w+\s*=>))`)
	JavaScriptLoopRe        = regexp.MustCompile(`\b(?:for|while|do)\s*\(`)
	JavaScriptConditionalRe = regexp.MustCompile(`\b(?:if|else\s+if|switch)\s*\(`)
	JavaScriptClassRe       = regexp.MustCompile(`\bclass\s+\w+`)

	// JavaScriptSpinRe is a whole-file flag: one unlocated risk per file,
	// however many spin sites exist.
	JavaScriptSpinRe = regexp.MustCompile(`while\s*\(\s*true\s*\)`)
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
