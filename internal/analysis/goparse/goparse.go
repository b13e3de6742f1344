// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package goparse implements analysis.Analyser for Go source files. Struct
// types are reported as classes, interface types as traits and receiver-less
// functions as functions.
package goparse

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/covcache/internal/analysis"
)

const (
	ignoreAnnotation = "//coverage:ignore"
	ignoreStart      = "//coverage:ignore-start"
	ignoreEnd        = "//coverage:ignore-end"
)

// ParsingAnalyser parses the file on every call. Wrap it with
// cache.CachingAnalyser to avoid repeated work.
type ParsingAnalyser struct {
	// UseAnnotations honours //coverage:ignore style comments.
	UseAnnotations bool
	// IgnoreDeprecated ignores declarations documented as Deprecated.
	IgnoreDeprecated bool
}

var _ analysis.Analyser = (*ParsingAnalyser)(nil)

func New(useAnnotations, ignoreDeprecated bool) *ParsingAnalyser {
	return &ParsingAnalyser{
		UseAnnotations:   useAnnotations,
		IgnoreDeprecated: ignoreDeprecated,
	}
}

type parsed struct {
	fset *token.FileSet
	file *ast.File
	src  []byte
}

func (p *parsed) line(pos token.Pos) int {
	return p.fset.Position(pos).Line
}

func parse(op analysis.Operation, filename string) (*parsed, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, &analysis.AnalysisError{Op: op, Filename: filename, Err: err}
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, &analysis.AnalysisError{Op: op, Filename: filename, Err: err}
	}
	log.Debugf("parsed %s for %s", filename, op)

	return &parsed{fset: fset, file: f, src: src}, nil
}

// ClassesIn returns the struct types declared in filename together with the
// methods declared on them in the same file.
func (a *ParsingAnalyser) ClassesIn(filename string) (analysis.Classes, error) {
	p, err := parse(analysis.OpClasses, filename)
	if err != nil {
		return nil, err
	}

	ns := p.file.Name.Name
	classes := analysis.Classes{}
	for _, ts := range typeSpecs(p.file) {
		if _, ok := ts.Type.(*ast.StructType); !ok {
			continue
		}
		classes[ts.Name.Name] = analysis.ClassInfo{
			Name:           ts.Name.Name,
			NamespacedName: ns + "." + ts.Name.Name,
			Namespace:      ns,
			StartLine:      p.line(ts.Pos()),
			EndLine:        p.line(ts.End()),
			Methods:        map[string]analysis.MethodInfo{},
		}
	}

	for _, decl := range p.file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
			continue
		}
		class, ok := classes[receiverName(fd.Recv.List[0].Type)]
		if !ok {
			continue
		}
		class.Methods[fd.Name.Name] = analysis.MethodInfo{
			MethodName: fd.Name.Name,
			Signature:  p.signature(fd),
			Visibility: visibility(fd.Name.Name),
			StartLine:  p.line(fd.Pos()),
			EndLine:    p.line(fd.End()),
			CCN:        complexity(fd.Body),
		}
	}

	return classes, nil
}

// TraitsIn returns the interface types declared in filename.
func (a *ParsingAnalyser) TraitsIn(filename string) (analysis.Traits, error) {
	p, err := parse(analysis.OpTraits, filename)
	if err != nil {
		return nil, err
	}

	ns := p.file.Name.Name
	traits := analysis.Traits{}
	for _, ts := range typeSpecs(p.file) {
		it, ok := ts.Type.(*ast.InterfaceType)
		if !ok {
			continue
		}
		methods := map[string]analysis.MethodInfo{}
		for _, field := range it.Methods.List {
			ft, ok := field.Type.(*ast.FuncType)
			if !ok {
				// Embedded interface or type constraint.
				continue
			}
			for _, name := range field.Names {
				methods[name.Name] = analysis.MethodInfo{
					MethodName: name.Name,
					Signature:  name.Name + strings.TrimPrefix(p.render(ft), "func"),
					Visibility: visibility(name.Name),
					StartLine:  p.line(field.Pos()),
					EndLine:    p.line(field.End()),
					CCN:        1,
				}
			}
		}
		traits[ts.Name.Name] = analysis.TraitInfo{
			Name:           ts.Name.Name,
			NamespacedName: ns + "." + ts.Name.Name,
			Namespace:      ns,
			StartLine:      p.line(ts.Pos()),
			EndLine:        p.line(ts.End()),
			Methods:        methods,
		}
	}

	return traits, nil
}

// FunctionsIn returns the top level functions without receivers.
func (a *ParsingAnalyser) FunctionsIn(filename string) (analysis.Functions, error) {
	p, err := parse(analysis.OpFunctions, filename)
	if err != nil {
		return nil, err
	}

	ns := p.file.Name.Name
	functions := analysis.Functions{}
	for _, decl := range p.file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil {
			continue
		}
		functions[fd.Name.Name] = analysis.FunctionInfo{
			Name:           fd.Name.Name,
			NamespacedName: ns + "." + fd.Name.Name,
			Namespace:      ns,
			Signature:      p.signature(fd),
			StartLine:      p.line(fd.Pos()),
			EndLine:        p.line(fd.End()),
			CCN:            complexity(fd.Body),
		}
	}

	return functions, nil
}

// LinesOfCodeFor counts physical, comment, non-comment and logical lines.
// A line holding both code and a trailing comment counts as a comment line.
func (a *ParsingAnalyser) LinesOfCodeFor(filename string) (analysis.LinesOfCode, error) {
	p, err := parse(analysis.OpLinesOfCode, filename)
	if err != nil {
		return analysis.LinesOfCode{}, err
	}

	total := countLines(p.src)

	commentLines := map[int]struct{}{}
	for _, cg := range p.file.Comments {
		for _, c := range cg.List {
			for l := p.line(c.Pos()); l <= p.line(c.End()); l++ {
				commentLines[l] = struct{}{}
			}
		}
	}

	logical := 0
	ast.Inspect(p.file, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.BlockStmt, *ast.EmptyStmt:
		case ast.Stmt:
			logical++
		}
		return true
	})

	return analysis.LinesOfCode{
		LinesOfCode:           total,
		CommentLinesOfCode:    len(commentLines),
		NonCommentLinesOfCode: total - len(commentLines),
		LogicalLinesOfCode:    logical,
	}, nil
}

// IgnoredLinesFor collects the lines excluded by annotations and, when
// enabled, by deprecation notices.
func (a *ParsingAnalyser) IgnoredLinesFor(filename string) (analysis.IgnoredLines, error) {
	p, err := parse(analysis.OpIgnoredLines, filename)
	if err != nil {
		return nil, err
	}

	lines := map[int]struct{}{}
	mark := func(from, to int) {
		for l := from; l <= to; l++ {
			lines[l] = struct{}{}
		}
	}

	for _, d := range docNodes(p.file) {
		if a.UseAnnotations && hasAnnotation(d.doc) {
			mark(p.line(d.node.Pos()), p.line(d.node.End()))
		}
		if a.IgnoreDeprecated && isDeprecated(d.doc) {
			mark(p.line(d.node.Pos()), p.line(d.node.End()))
		}
	}

	if a.UseAnnotations {
		start := 0
		for _, cg := range p.file.Comments {
			for _, c := range cg.List {
				switch strings.TrimSpace(c.Text) {
				case ignoreStart:
					if start == 0 {
						start = p.line(c.Pos())
					}
				case ignoreEnd:
					if start > 0 {
						mark(start, p.line(c.Pos()))
						start = 0
					}
				}
			}
		}
		// An unterminated region runs to the end of the file.
		if start > 0 {
			mark(start, countLines(p.src))
		}
	}

	ignored := make(analysis.IgnoredLines, 0, len(lines))
	for l := range lines {
		ignored = append(ignored, l)
	}
	sort.Ints(ignored)

	return ignored, nil
}

type documented struct {
	node ast.Node
	doc  *ast.CommentGroup
}

// docNodes pairs every declaration and grouped spec with its doc comment.
func docNodes(f *ast.File) []documented {
	var out []documented
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			out = append(out, documented{node: d, doc: d.Doc})
		case *ast.GenDecl:
			out = append(out, documented{node: d, doc: d.Doc})
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					out = append(out, documented{node: s, doc: s.Doc})
				case *ast.ValueSpec:
					out = append(out, documented{node: s, doc: s.Doc})
				}
			}
		}
	}
	return out
}

func hasAnnotation(cg *ast.CommentGroup) bool {
	if cg == nil {
		return false
	}
	for _, c := range cg.List {
		if strings.TrimSpace(c.Text) == ignoreAnnotation {
			return true
		}
	}
	return false
}

func isDeprecated(cg *ast.CommentGroup) bool {
	if cg == nil {
		return false
	}
	for _, line := range strings.Split(cg.Text(), "\n") {
		if strings.HasPrefix(line, "Deprecated:") {
			return true
		}
	}
	return false
}

func typeSpecs(f *ast.File) []*ast.TypeSpec {
	var specs []*ast.TypeSpec
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				specs = append(specs, ts)
			}
		}
	}
	return specs
}

// receiverName strips pointers and type parameters from a receiver type.
func receiverName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

func visibility(name string) string {
	if ast.IsExported(name) {
		return "public"
	}
	return "private"
}

// signature renders the declaration without its doc comment or body.
func (p *parsed) signature(fd *ast.FuncDecl) string {
	return p.render(&ast.FuncDecl{
		Recv: fd.Recv,
		Name: fd.Name,
		Type: fd.Type,
	})
}

func (p *parsed) render(node any) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, p.fset, node); err != nil {
		return ""
	}
	return buf.String()
}

// complexity is the cyclomatic complexity of a function body.
func complexity(body *ast.BlockStmt) int {
	ccn := 1
	if body == nil {
		return ccn
	}
	ast.Inspect(body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt:
			ccn++
		case *ast.CaseClause:
			if x.List != nil {
				ccn++
			}
		case *ast.CommClause:
			if x.Comm != nil {
				ccn++
			}
		case *ast.BinaryExpr:
			if x.Op == token.LAND || x.Op == token.LOR {
				ccn++
			}
		}
		return true
	})
	return ccn
}

func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := bytes.Count(src, []byte("\n"))
	if src[len(src)-1] != '\n' {
		n++
	}
	return n
}
