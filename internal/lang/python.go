package lang

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/rce-engine/analysis-worker/internal/catalog"
	"github.com/rce-engine/analysis-worker/internal/model"
)

func init() {
	register(&Variant{
		Name:    "python",
		Analyze: analyzePython,
		ComplexityKeys: []string{
			model.MetricConditionals,
			model.MetricLoops,
			model.MetricTryBlocks,
		},
		TracksTryBlocks:         true,
		SuggestMissingFunctions: true,
	})
}

// pythonVisit is the mutable context for one structural analysis pass.
// It is scoped to a single Analyze call and discarded afterwards.
type pythonVisit struct {
	source  []byte
	metrics model.Metrics
	risks   []model.Risk

	// aliases maps each import binding to its canonical top-level module.
	// It grows as import statements are visited, so a call site resolves
	// only against aliases introduced earlier in traversal order.
	aliases map[string]string
}

// analyzePython performs exact analysis via one pre-order walk of the
// tree-sitter parse tree.
func analyzePython(code string) *Result {
	source := []byte(code)

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return pythonSyntaxError(0, err.Error())
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, near := firstSyntaxError(root, source)
		return pythonSyntaxError(line, near)
	}

	v := &pythonVisit{
		source: source,
		metrics: model.Metrics{
			model.MetricFunctions:    0,
			model.MetricClasses:      0,
			model.MetricLoops:        0,
			model.MetricConditionals: 0,
			model.MetricImports:      0,
			model.MetricTryBlocks:    0,
			model.MetricLinesOfCode:  countCodeLines(code, "#"),
		},
		aliases: make(map[string]string),
	}
	v.walk(root)

	return &Result{Metrics: v.metrics, Risks: v.risks}
}

func pythonSyntaxError(line int, near string) *Result {
	msg := "Syntax error"
	if near != "" {
		msg = fmt.Sprintf("Syntax error near: %s", near)
	}
	return &Result{
		Metrics:     model.Metrics{model.MetricSyntaxError: 1},
		Risks:       []model.Risk{{Kind: "syntax_error", Message: msg, Severity: model.Critical, Line: line}},
		SyntaxError: true,
	}
}

// firstSyntaxError locates the first ERROR or MISSING node in the tree and
// returns its 1-based line plus a short source excerpt. Returns line 0 when
// the tree reports an error but no such node is reachable.
func firstSyntaxError(node *sitter.Node, source []byte) (int, string) {
	if node.IsError() || node.IsMissing() {
		start, end := node.StartByte(), node.EndByte()
		if end > uint32(len(source)) {
			end = uint32(len(source))
		}
		near := strings.TrimSpace(string(source[start:end]))
		if len(near) > 40 {
			near = near[:40] + "..."
		}
		return int(node.StartPoint().Row) + 1, near
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if line, near := firstSyntaxError(node.Child(i), source); line > 0 {
			return line, near
		}
	}
	return 0, ""
}

func (v *pythonVisit) walk(node *sitter.Node) {
	switch node.Type() {
	case "function_definition":
		// Covers async def as well: the grammar keeps one node type.
		v.metrics[model.MetricFunctions]++
	case "class_definition":
		v.metrics[model.MetricClasses]++
	case "for_statement":
		v.metrics[model.MetricLoops]++
	case "while_statement":
		v.metrics[model.MetricLoops]++
		v.checkWhile(node)
	case "if_statement", "elif_clause":
		// elif is a clause node here, but a nested If in Python's own AST;
		// counting both keeps parity with the reference semantics.
		v.metrics[model.MetricConditionals]++
	case "try_statement":
		v.metrics[model.MetricTryBlocks]++
		v.checkHandlers(node)
	case "import_statement":
		v.visitImport(node)
	case "import_from_statement":
		v.visitImportFrom(node)
	case "call":
		v.visitCall(node)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		v.walk(node.NamedChild(i))
	}
}

func (v *pythonVisit) checkWhile(node *sitter.Node) {
	cond := node.ChildByFieldName("condition")
	if cond != nil && cond.Type() == "true" {
		v.addRisk("infinite_loop", "Potential infinite loop detected (while True)", model.Medium, node)
	}
}

// checkHandlers flags catch-all except clauses.
func (v *pythonVisit) checkHandlers(try *sitter.Node) {
	for i := 0; i < int(try.NamedChildCount()); i++ {
		clause := try.NamedChild(i)
		if clause.Type() != "except_clause" {
			continue
		}
		if bareExcept(clause) {
			v.addRisk("bare_except", "Bare except clause catches all exceptions", model.Low, clause)
		}
	}
}

// bareExcept reports whether an except clause declares no exception type,
// i.e. its first meaningful named child is already the handler body.
func bareExcept(clause *sitter.Node) bool {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		switch clause.NamedChild(i).Type() {
		case "comment":
			continue
		case "block":
			return true
		default:
			return false
		}
	}
	return false
}

func (v *pythonVisit) visitImport(node *sitter.Node) {
	v.metrics[model.MetricImports]++
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			name := v.text(child)
			top := topModule(name)
			v.aliases[name] = top
			v.checkImport(top, node, nil)
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			top := topModule(v.text(nameNode))
			v.aliases[v.text(aliasNode)] = top
			v.checkImport(top, node, nil)
		}
	}
}

func (v *pythonVisit) visitImportFrom(node *sitter.Node) {
	v.metrics[model.MetricImports]++

	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil || moduleNode.Type() != "dotted_name" {
		// Relative import ("from . import x"): no canonical module to check.
		return
	}
	top := topModule(v.text(moduleNode))

	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == moduleNode.StartByte() && child.EndByte() == moduleNode.EndByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			name := v.text(child)
			names = append(names, name)
			v.aliases[name] = top
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			names = append(names, v.text(nameNode))
			v.aliases[v.text(aliasNode)] = top
		case "wildcard_import":
			names = append(names, "*")
		}
	}

	v.checkImport(top, node, names)
}

// checkImport emits risks for imports touching the dangerous-module table.
// A plain module import is LOW; importing specific dangerous names (or the
// wildcard) is MEDIUM.
func (v *pythonVisit) checkImport(module string, node *sitter.Node, names []string) {
	methods, ok := catalog.PythonModules[module]
	if !ok {
		return
	}
	if names == nil {
		v.addRisk("dangerous_import",
			fmt.Sprintf("Import of potentially dangerous module: %s", module),
			model.Low, node)
		return
	}
	var dangerous []string
	for _, n := range names {
		if n == "*" || methods[n] {
			dangerous = append(dangerous, n)
		}
	}
	if len(dangerous) > 0 {
		v.addRisk("dangerous_import",
			fmt.Sprintf("Potentially dangerous import from %s: %s", module, strings.Join(dangerous, ", ")),
			model.Medium, node)
	}
}

func (v *pythonVisit) visitCall(node *sitter.Node) {
	name := v.callName(node)
	if name == "" {
		return
	}

	if fn, ok := catalog.PythonFunctions[name]; ok {
		v.addRisk("dangerous_function",
			fmt.Sprintf("Dangerous function call: %s() - %s", name, fn.Reason),
			fn.Severity, node)
	}

	if i := strings.LastIndex(name, "."); i >= 0 {
		module, method := name[:i], name[i+1:]
		canonical, ok := v.aliases[module]
		if !ok {
			// Unresolved bindings fall back to the literal name, so a plain
			// "os.system" still matches while an alias seen only later in
			// traversal order does not.
			canonical = module
		}
		if methods, ok := catalog.PythonModules[canonical]; ok && methods[method] {
			v.addRisk("dangerous_call",
				fmt.Sprintf("Potentially dangerous call: %s()", name),
				model.High, node)
		}
	}
}

// callName resolves a call's callee to a dotted name by walking the
// attribute chain from innermost to outermost and reversing the parts.
func (v *pythonVisit) callName(node *sitter.Node) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return v.text(fn)
	case "attribute":
		var parts []string
		current := fn
		for current != nil && current.Type() == "attribute" {
			attr := current.ChildByFieldName("attribute")
			if attr == nil {
				return ""
			}
			parts = append(parts, v.text(attr))
			current = current.ChildByFieldName("object")
		}
		if current == nil || current.Type() != "identifier" {
			return ""
		}
		parts = append(parts, v.text(current))
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		return strings.Join(parts, ".")
	}
	return ""
}

func (v *pythonVisit) addRisk(kind, message string, severity model.Severity, node *sitter.Node) {
	v.risks = append(v.risks, model.Risk{
		Kind:     kind,
		Message:  message,
		Severity: severity,
		Line:     int(node.StartPoint().Row) + 1,
	})
}

func (v *pythonVisit) text(node *sitter.Node) string {
	return string(v.source[node.StartByte():node.EndByte()])
}

func topModule(dotted string) string {
	if i := strings.Index(dotted, "."); i >= 0 {
		return dotted[:i]
	}
	return dotted
}
