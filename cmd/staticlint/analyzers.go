package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// OsExitAnalyzer запрещает прямой вызов os.Exit в функции main пакета main:
// отложенные вызовы, например синхронизация логгера и закрытие хранилища, при этом не выполняются.
var OsExitAnalyzer = &analysis.Analyzer{
	Name:     "osexit",
	Doc:      "prohibits direct calls to os.Exit in main function of main package",
	Run:      runOsExit,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// NoContextRequestAnalyzer запрещает исходящие HTTP запросы без контекста:
// без него не работают таймаут вызова и отмена пакета.
var NoContextRequestAnalyzer = &analysis.Analyzer{
	Name:     "noctxrequest",
	Doc:      "reports outbound HTTP requests built without a context.Context",
	Run:      runNoContextRequest,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// noContextFuncs содержит функции net/http, создающие запрос без контекста
var noContextFuncs = map[string]string{
	"NewRequest": "use http.NewRequestWithContext",
	"Get":        "build the request with http.NewRequestWithContext",
	"Post":       "build the request with http.NewRequestWithContext",
	"PostForm":   "build the request with http.NewRequestWithContext",
	"Head":       "build the request with http.NewRequestWithContext",
}

func runOsExit(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(node ast.Node) {
		fn := node.(*ast.FuncDecl)
		if fn.Name.Name != "main" || fn.Recv != nil || fn.Body == nil {
			return
		}

		ast.Inspect(fn.Body, func(n ast.Node) bool {
			// Замыкания могут выполниться после выхода из main, их не проверяем
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			if pkg, name, ok := calledFunc(pass, call); ok && pkg == "os" && name == "Exit" {
				pass.Reportf(call.Pos(), "avoid direct os.Exit call in main function of main package")
			}
			return true
		})
	})
	return nil, nil
}

func runNoContextRequest(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(node ast.Node) {
		call := node.(*ast.CallExpr)
		pkg, name, ok := calledFunc(pass, call)
		if !ok || pkg != "net/http" {
			return
		}
		if hint, found := noContextFuncs[name]; found {
			pass.Reportf(call.Pos(), "http.%s sends a request without context: %s", name, hint)
		}
	})
	return nil, nil
}

// calledFunc возвращает путь пакета и имя функции для вызова вида pkg.Func
func calledFunc(pass *analysis.Pass, call *ast.CallExpr) (string, string, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", "", false
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", "", false
	}
	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return "", "", false
	}
	return pkgName.Imported().Path(), sel.Sel.Name, true
}
