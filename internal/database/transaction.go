package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder builds a BEGIN/COMMIT TRANSACTION block from several statements,
// renaming each statement's variables so they cannot collide.
//
// Example: two statements both using $id become $v1_id and $v2_id.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		vars: make(map[string]interface{}),
	}
}

// Add appends a statement, namespacing its variables
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) {
	tb.counter++

	// Longest names first so $shift is not rewritten inside $shift_id.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		renamed := fmt.Sprintf("v%d_%s", tb.counter, name)
		pairs = append(pairs, "$"+name, "$"+renamed)
		tb.vars[renamed] = vars[name]
	}
	if len(pairs) > 0 {
		query = strings.NewReplacer(pairs...).Replace(query)
	}

	tb.statements = append(tb.statements, query)
}

// Len returns the number of statements added
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		stmt = strings.TrimSpace(stmt)
		sb.WriteString(stmt)
		if !strings.HasSuffix(stmt, ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// AtomicBatch is a fluent wrapper over TxBuilder for statements that must
// succeed or fail together
type AtomicBatch struct {
	builder *TxBuilder
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{builder: NewTxBuilder()}
}

// Add adds a statement to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.builder.Add(query, vars)
	return ab
}

// Len returns the number of statements in the batch
func (ab *AtomicBatch) Len() int {
	return ab.builder.Len()
}

// Execute runs all statements as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	query, vars := ab.builder.Build()
	if query == "" {
		return nil
	}
	return db.Execute(ctx, query, vars)
}
