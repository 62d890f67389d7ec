package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/coursedb/godb/godb"
)

// shell holds the process-wide state godbctl's commands operate on: one
// buffer pool, one catalog (filled by "open"), and the readline instance
// that reads interactive commands.
type shell struct {
	bp      *godb.BufferPool
	catalog *godb.Catalog
	rl      *readline.Instance
}

func newShell() (*shell, error) {
	bp, err := godb.NewBufferPool(godb.DefaultBufferPoolPages)
	if err != nil {
		return nil, err
	}
	rl, err := readline.New("godbctl> ")
	if err != nil {
		return nil, err
	}
	return &shell{bp: bp, catalog: godb.NewCatalog(bp), rl: rl}, nil
}

func (s *shell) Close() error {
	return s.rl.Close()
}

func (s *shell) repl() {
	for {
		line, err := s.rl.Readline()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			return
		}
		if err := s.dispatch(fields); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (s *shell) dispatch(args []string) error {
	switch args[0] {
	case "open":
		return s.cmdOpen(args[1:])
	case "scan":
		return s.cmdScan(args[1:])
	case "insert":
		return s.cmdInsert(args[1:])
	case "stats":
		return s.cmdStats(args[1:])
	case "log":
		return s.cmdLog(args[1:])
	default:
		return fmt.Errorf("unknown command %q (try: open, scan, insert, stats, log)", args[0])
	}
}

func (s *shell) cmdOpen(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: open <manifest.yaml>")
	}
	return s.catalog.LoadManifest(args[0])
}

func (s *shell) cmdScan(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: scan <table>")
	}
	f, err := s.catalog.GetTable(args[0])
	if err != nil {
		return err
	}
	txn := godb.NewTransaction(s.bp)
	if err := txn.Start(); err != nil {
		return err
	}
	scan := godb.NewSeqScan(f, args[0])
	if err := scan.Open(txn.ID); err != nil {
		txn.Abort()
		return err
	}
	for {
		has, err := scan.HasNext()
		if err != nil {
			txn.Abort()
			return err
		}
		if !has {
			break
		}
		t, err := scan.Next()
		if err != nil {
			txn.Abort()
			return err
		}
		fmt.Println(formatTuple(t))
	}
	scan.Close()
	return txn.Commit()
}

// cmdInsert builds a single tuple from args against the table's schema (a
// literal for an int field must parse as int64; a literal for a string field
// is taken as-is) and runs it through an InsertOp fed by a one-row literal
// operator.
func (s *shell) cmdInsert(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: insert <table> <field>...")
	}
	table, literals := args[0], args[1:]
	f, err := s.catalog.GetTable(table)
	if err != nil {
		return err
	}
	desc := f.Descriptor()
	if len(literals) != len(desc.Fields) {
		return fmt.Errorf("table %s has %d fields, got %d values", table, len(desc.Fields), len(literals))
	}
	fields := make([]godb.DBValue, len(literals))
	for i, lit := range literals {
		if desc.Fields[i].Ftype == godb.IntType {
			v, err := strconv.ParseInt(lit, 10, 64)
			if err != nil {
				return fmt.Errorf("field %d: %v", i, err)
			}
			fields[i] = godb.IntField{Value: v}
		} else {
			fields[i] = godb.StringField{Value: lit}
		}
	}
	t := &godb.Tuple{Desc: *desc, Fields: fields}

	txn := godb.NewTransaction(s.bp)
	if err := txn.Start(); err != nil {
		return err
	}
	ins := godb.NewInsertOp(f, newLiteralOp(desc, t))
	if err := ins.Open(txn.ID); err != nil {
		txn.Abort()
		return err
	}
	result, err := ins.Next()
	if err != nil {
		txn.Abort()
		return err
	}
	ins.Close()
	if err := txn.Commit(); err != nil {
		return err
	}
	fmt.Println(formatTuple(result))
	return nil
}

func (s *shell) cmdStats(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stats <table>")
	}
	txn := godb.NewTransaction(s.bp)
	if err := txn.Start(); err != nil {
		return err
	}
	if err := s.catalog.RefreshStats(args[0], txn.ID); err != nil {
		txn.Abort()
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	ts, ok := s.catalog.Stats(args[0])
	if !ok {
		return fmt.Errorf("no stats computed for %s", args[0])
	}
	f, err := s.catalog.GetTable(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("scan cost: %.0f\n", ts.EstimateScanCost(f))
	for _, field := range f.Descriptor().Fields {
		fmt.Printf("  %s: distinct ~= %d\n", field.Fname, ts.EstimateDistinctCount(field.Fname))
	}
	return nil
}

func (s *shell) cmdLog(args []string) error {
	if len(args) != 2 || args[0] != "dump" {
		return fmt.Errorf("usage: log dump <path>")
	}
	wal, err := godb.NewLogFile(args[1], s.bp, s.catalog)
	if err != nil {
		return err
	}
	return wal.OutputPrettyLog()
}

func formatTuple(t *godb.Tuple) string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		switch v := f.(type) {
		case godb.IntField:
			parts[i] = strconv.FormatInt(v.Value, 10)
		case godb.StringField:
			parts[i] = v.Value
		default:
			parts[i] = fmt.Sprintf("%v", f)
		}
	}
	return strings.Join(parts, "\t")
}

// literalOp is a one-row Operator wrapping a single already-built tuple, the
// simplest possible child for feeding InsertOp from a command-line literal.
type literalOp struct {
	desc     *godb.TupleDesc
	tuple    *godb.Tuple
	consumed bool
}

func newLiteralOp(desc *godb.TupleDesc, t *godb.Tuple) *literalOp {
	return &literalOp{desc: desc, tuple: t}
}

func (l *literalOp) GetTupleDesc() *godb.TupleDesc { return l.desc }
func (l *literalOp) Open(tid godb.TransactionID) error {
	l.consumed = false
	return nil
}
func (l *literalOp) Close() error  { return nil }
func (l *literalOp) Rewind() error { l.consumed = false; return nil }
func (l *literalOp) HasNext() (bool, error) {
	return !l.consumed, nil
}
func (l *literalOp) Next() (*godb.Tuple, error) {
	if l.consumed {
		return nil, godb.GoDBError{Code: godb.NoSuchElementError, Message: "literalOp: already consumed"}
	}
	l.consumed = true
	return l.tuple, nil
}
