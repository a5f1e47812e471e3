package main

import (
	"fmt"
	"strings"
	"text/template"
)

var funcMap = template.FuncMap{
	"recv": func(e RawEnumDef) string {
		if e.Receiver != "" {
			return e.Receiver
		}
		return strings.ToLower(e.Type[:1])
	},
	"literal": func(e RawEnumDef, v int64) string {
		if e.Hex {
			return fmt.Sprintf("0x%x", v)
		}
		return fmt.Sprintf("%d", v)
	},
	"fallback": func(e RawEnumDef) string {
		if e.Hex {
			return e.Type + "(0x%x)"
		}
		return e.Type + "(%d)"
	},
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}

const fileTmpl = `// Code generated by linectl-catgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import "fmt"
{{range .Enums}}{{template "enum" .}}{{end}}`

const enumTmpl = `{{define "enum"}}{{$e := .}}{{$r := recv .}}
{{if .Description}}// {{.Description}}
{{end}}type {{.Type}} int64

const (
{{- range .Values}}
	{{.Const}} {{$e.Type}} = {{literal $e .Value}}
{{- end}}
)

var {{.Table}} = map[{{.Type}}]string{
{{- range .Values}}
	{{.Const}}: {{quote .Name}},
{{- end}}
}
{{if .Ordered}}
var {{.Ordered}} = []{{.Type}}{
{{- range .Values}}
	{{.Const}},
{{- end}}
}
{{end}}
// String returns the {{.Subject}} name.
func ({{$r}} {{.Type}}) String() string {
	if n, ok := {{.Table}}[{{$r}}]; ok {
		return n
	}
	return fmt.Sprintf({{quote (fallback .)}}, int64({{$r}}))
}

// Valid reports whether {{$r}} is a declared {{.Subject}}.
func ({{$r}} {{.Type}}) Valid() bool {
	_, ok := {{.Table}}[{{$r}}]
	return ok
}
{{end}}`

var templates = template.Must(template.New("file").Funcs(funcMap).Parse(fileTmpl + enumTmpl))

// Generate renders the Go source for cat. The result is not formatted;
// writeFormatted runs it through goimports.
func Generate(cat *RawCatalog, source string) (string, error) {
	for i := range cat.Enums {
		if cat.Enums[i].Subject == "" {
			cat.Enums[i].Subject = strings.ToLower(cat.Enums[i].Type)
		}
	}

	var b strings.Builder
	data := struct {
		*RawCatalog
		Source string
	}{cat, source}
	if err := templates.ExecuteTemplate(&b, "file", data); err != nil {
		return "", fmt.Errorf("template: %w", err)
	}
	return b.String(), nil
}
