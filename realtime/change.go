// Package realtime entrega notificações de mudança nas tabelas a assinantes
// de canais nomeados, no estilo "postgres_changes".
package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DEFAULT_SCHEMA = "public"

const EVENT_ALL = "*"
const EVENT_INSERT = "INSERT"
const EVENT_UPDATE = "UPDATE"
const EVENT_DELETE = "DELETE"

// Change descreve uma linha inserida, alterada ou removida.
type Change struct {
	Schema          string         `json:"schema"`
	Table           string         `json:"table"`
	Type            string         `json:"type"`
	Record          map[string]any `json:"record,omitempty"`
	OldRecord       map[string]any `json:"old_record,omitempty"`
	CommitTimestamp time.Time      `json:"commit_timestamp"`
	// Truncated indica que o registro veio só com a chave primária.
	Truncated bool `json:"truncated,omitempty"`
}

// Row devolve o registro relevante: o antigo para DELETE, o novo nos demais.
func (c Change) Row() map[string]any {
	if c.Type == EVENT_DELETE && c.OldRecord != nil {
		return c.OldRecord
	}
	return c.Record
}

// Publisher recebe mudanças de alguma fonte (callbacks do gorm, LISTEN do
// postgres, ponte redis).
type Publisher interface {
	Publish(Change)
}

var ErrFiltroInvalido = errors.New("filtro inválido")

// Filter é a assinatura declarativa: schema, tabela, evento e um predicado
// opcional "coluna=op.valor".
type Filter struct {
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table"`
	Event  string `json:"event,omitempty"`
	Filter string `json:"filter,omitempty"`
}

type predicate struct {
	column string
	op     string
	values []string
}

var ops = map[string]bool{
	"eq": true, "neq": true, "in": true,
	"lt": true, "lte": true, "gt": true, "gte": true,
}

// parsePredicate interpreta "status=eq.ativo" ou "id=in.(1,2,3)".
func parsePredicate(raw string) (*predicate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	col, rest, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(col) == "" {
		return nil, fmt.Errorf("%w: %q", ErrFiltroInvalido, raw)
	}
	op, val, ok := strings.Cut(rest, ".")
	if !ok || !ops[op] {
		return nil, fmt.Errorf("%w: operador em %q", ErrFiltroInvalido, raw)
	}

	p := &predicate{column: strings.TrimSpace(col), op: op}
	if op == "in" {
		val = strings.TrimSuffix(strings.TrimPrefix(val, "("), ")")
		for _, v := range strings.Split(val, ",") {
			p.values = append(p.values, strings.TrimSpace(v))
		}
	} else {
		p.values = []string{val}
	}
	return p, nil
}

// Normalize aplica os padrões e valida o filtro.
func (f Filter) Normalize() (Filter, error) {
	if f.Schema == "" {
		f.Schema = DEFAULT_SCHEMA
	}
	f.Event = strings.ToUpper(strings.TrimSpace(f.Event))
	if f.Event == "" {
		f.Event = EVENT_ALL
	}
	switch f.Event {
	case EVENT_ALL, EVENT_INSERT, EVENT_UPDATE, EVENT_DELETE:
	default:
		return f, fmt.Errorf("%w: evento %q", ErrFiltroInvalido, f.Event)
	}
	if strings.TrimSpace(f.Table) == "" {
		return f, fmt.Errorf("%w: tabela obrigatória", ErrFiltroInvalido)
	}
	if _, err := parsePredicate(f.Filter); err != nil {
		return f, err
	}
	return f, nil
}

// Matches indica se a mudança satisfaz o filtro. Filtros inválidos nunca casam.
func (f Filter) Matches(c Change) bool {
	schema := f.Schema
	if schema == "" {
		schema = DEFAULT_SCHEMA
	}
	if schema != "*" && schema != c.Schema {
		return false
	}
	if f.Table != "*" && f.Table != c.Table {
		return false
	}
	if f.Event != "" && f.Event != EVENT_ALL && !strings.EqualFold(f.Event, c.Type) {
		return false
	}
	p, err := parsePredicate(f.Filter)
	if err != nil {
		return false
	}
	if p == nil {
		return true
	}
	v, ok := c.Row()[p.column]
	if !ok {
		// sem a coluna não dá para descartar; o assinante relê de qualquer jeito
		return c.Truncated
	}
	return p.match(v)
}

func (p *predicate) match(v any) bool {
	got := stringify(v)
	switch p.op {
	case "eq":
		return got == p.values[0]
	case "neq":
		return got != p.values[0]
	case "in":
		for _, want := range p.values {
			if got == want {
				return true
			}
		}
		return false
	}

	cmp := compare(got, p.values[0])
	switch p.op {
	case "lt":
		return cmp < 0
	case "lte":
		return cmp <= 0
	case "gt":
		return cmp > 0
	case "gte":
		return cmp >= 0
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// compare usa ordem numérica quando os dois lados são números.
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
