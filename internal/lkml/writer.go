// Package lkml renders view and explore definitions as LookML text.
package lkml

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/lookgen/internal/lookml"
)

const indentSize = 2

// Render serializes the views and optional explore of one model into a
// single LookML file body.
func Render(views []*lookml.ViewSpec, explore *lookml.ExploreSpec) string {
	p := newPrinter()
	for i, v := range views {
		if i > 0 {
			p.writeln()
		}
		p.view(v)
	}
	if explore != nil {
		if len(views) > 0 {
			p.writeln()
		}
		p.explore(explore)
	}
	return p.String()
}

type printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *printer {
	return &printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the rendered output with a single trailing newline.
func (p *printer) String() string {
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// line writes a whole `key: value` parameter line.
func (p *printer) line(key, value string) {
	p.write(key)
	p.write(": ")
	p.write(value)
	p.writeln()
}

// quoted writes a string parameter, skipping empty values.
func (p *printer) quoted(key, value string) {
	if value == "" {
		return
	}
	p.line(key, strconv.Quote(value))
}

// sql writes a `;;`-terminated SQL parameter.
func (p *printer) sql(key, value string) {
	if value == "" {
		return
	}
	p.line(key, value+" ;;")
}

func (p *printer) open(kind, name string) {
	p.write(kind)
	p.write(": ")
	p.write(name)
	p.write(" {")
	p.writeln()
	p.indent()
}

func (p *printer) close() {
	p.dedent()
	p.write("}")
	p.writeln()
}

// list writes a bracketed multi-line list parameter.
func (p *printer) list(key string, items []string, quote bool) {
	if len(items) == 0 {
		return
	}
	p.write(key)
	p.write(": [")
	p.writeln()
	p.indent()
	for i, it := range items {
		if quote {
			it = strconv.Quote(it)
		}
		p.write(it)
		if i < len(items)-1 {
			p.write(",")
		}
		p.writeln()
	}
	p.dedent()
	p.write("]")
	p.writeln()
}

func (p *printer) view(v *lookml.ViewSpec) {
	p.open("view", v.Name)
	p.quoted("label", v.Label)
	if v.Hidden != "" {
		p.line("hidden", v.Hidden)
	}
	if v.SQLTableName != "" {
		p.sql("sql_table_name", v.SQLTableName)
	}
	for _, f := range v.Fields {
		if f.Kind == lookml.FieldDimensionGroup {
			continue
		}
		p.writeln()
		p.dimension(f)
	}
	for _, f := range v.Fields {
		if f.Kind != lookml.FieldDimensionGroup {
			continue
		}
		p.writeln()
		p.dimensionGroup(f)
	}
	for _, m := range v.Measure {
		p.writeln()
		p.measure(m)
	}
	p.close()
}

func (p *printer) dimension(f *lookml.FieldSpec) {
	p.open("dimension", f.Name)
	p.quoted("label", f.Label)
	p.quoted("group_label", f.GroupLabel)
	p.quoted("group_item_label", f.GroupItemLabel)
	p.quoted("description", f.Description)
	if f.Type != "" {
		p.line("type", f.Type)
	}
	p.sql("sql", f.SQL)
	if f.ValueFormatName != "" {
		p.line("value_format_name", f.ValueFormatName)
	}
	if f.Hidden {
		p.line("hidden", "yes")
	}
	p.list("tags", f.Tags, true)
	p.close()
}

func (p *printer) dimensionGroup(f *lookml.FieldSpec) {
	p.open("dimension_group", f.Name)
	p.quoted("label", f.Label)
	p.quoted("group_label", f.GroupLabel)
	p.quoted("description", f.Description)
	p.line("type", f.Type)
	if f.Datatype != "" {
		p.line("datatype", f.Datatype)
	}
	p.list("timeframes", f.Timeframes, false)
	if f.ConvertTZ != "" {
		p.line("convert_tz", f.ConvertTZ)
	}
	p.sql("sql", f.SQL)
	if f.ValueFormatName != "" {
		p.line("value_format_name", f.ValueFormatName)
	}
	if f.Hidden {
		p.line("hidden", "yes")
	}
	p.list("tags", f.Tags, true)
	p.close()
}

func (p *printer) measure(m *lookml.MeasureSpec) {
	p.open("measure", m.Name)
	p.quoted("label", m.Label)
	p.quoted("group_label", m.GroupLabel)
	p.quoted("description", m.Description)
	if m.Type != "" {
		p.line("type", m.Type)
	}
	p.sql("sql", m.SQL)
	p.sql("sql_distinct_key", m.SQLDistinctKey)
	if m.Approximate != nil {
		p.line("approximate", yesNo(*m.Approximate))
	}
	if m.ApproxThreshold != nil {
		p.line("approximate_threshold", strconv.FormatInt(*m.ApproxThreshold, 10))
	}
	if m.Precision != nil {
		p.line("precision", strconv.Itoa(*m.Precision))
	}
	if m.Percentile != nil {
		p.line("percentile", strconv.Itoa(*m.Percentile))
	}
	if m.ValueFormatName != "" {
		p.line("value_format_name", m.ValueFormatName)
	}
	if len(m.Filters) > 0 {
		items := make([]string, 0, len(m.Filters))
		for _, fl := range m.Filters {
			items = append(items, fmt.Sprintf("%s: %s", fl.Field, strconv.Quote(fl.Value)))
		}
		p.list("filters", items, false)
	}
	if m.Hidden != "" {
		p.line("hidden", m.Hidden)
	}
	p.list("tags", m.Tags, true)
	p.close()
}

func (p *printer) explore(e *lookml.ExploreSpec) {
	p.open("explore", e.Name)
	p.quoted("label", e.Label)
	if e.From != "" {
		p.line("from", e.From)
	}
	if e.Hidden != "" {
		p.line("hidden", e.Hidden)
	}
	for _, j := range e.Joins {
		p.writeln()
		p.open("join", j.Name)
		p.line("relationship", j.Relationship)
		p.sql("sql", j.SQL)
		p.line("type", j.Type)
		p.close()
	}
	p.close()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
