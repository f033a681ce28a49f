// Package noosexit implements an analyzer that keeps process exit decisions in main.main.
package noosexit

import (
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports os.Exit calls anywhere except the body of main.main.
// Everything below main returns errors or exit codes instead.
var Analyzer = &analysis.Analyzer{
	Name: "noosexit",
	Doc:  "forbid os.Exit outside main.main",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	isMainPkg := pass.Pkg != nil && pass.Pkg.Name() == "main"

	for _, f := range pass.Files {
		fn := pass.Fset.Position(f.Pos()).Filename
		if strings.Contains(fn, "/.cache/go-build/") || isGenerated(f) || importsTesting(f) {
			continue // testmain and generated code
		}

		for _, decl := range f.Decls {
			allowed := false
			if fd, ok := decl.(*ast.FuncDecl); ok {
				allowed = isMainPkg && fd.Recv == nil && fd.Name.Name == "main"
			}

			ast.Inspect(decl, func(n ast.Node) bool {
				if allowed {
					// closures inside main.main are not main.main
					if lit, ok := n.(*ast.FuncLit); ok {
						reportIn(pass, lit.Body)
						return false
					}
				}
				call, ok := n.(*ast.CallExpr)
				if ok && !allowed && isOSExit(pass, call) {
					pass.Reportf(call.Pos(), "os.Exit outside main.main; return an error or exit code instead")
				}
				return true
			})
		}
	}
	return nil, nil
}

func reportIn(pass *analysis.Pass, body ast.Node) {
	ast.Inspect(body, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok && isOSExit(pass, call) {
			pass.Reportf(call.Pos(), "os.Exit outside main.main; return an error or exit code instead")
		}
		return true
	})
}

func isOSExit(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	obj, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	return ok && obj.Pkg() != nil && obj.Pkg().Path() == "os" && obj.Name() == "Exit"
}

func isGenerated(f *ast.File) bool {
	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if strings.Contains(c.Text, "Code generated") && strings.Contains(c.Text, "DO NOT EDIT") {
				return true
			}
		}
	}
	return false
}

func importsTesting(f *ast.File) bool {
	for _, im := range f.Imports {
		if p, _ := strconv.Unquote(im.Path.Value); p == "testing" || p == "testing/internal/testdeps" {
			return true
		}
	}
	return false
}
