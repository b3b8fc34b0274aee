package graph

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/geoknoesis/ldgraph/rdf"
	"github.com/vmihailenco/msgpack/v5"
)

// Key layout (sep = 0x00, <x> = N-Triples rendering, h(x) = hex sha256):
//
//	s sep {graph} sep <S> sep h(<P> <O>)          → triple record (subject index)
//	p sep {graph} sep <P> sep h(<O>) sep h(<S>)   → triple record (predicate index)
const (
	keySep          = 0x00
	subjectIndex    = "s"
	predicateIndex  = "p"
	maxGraphNameLen = 1 << 10
)

// BadgerOptions configures a BadgerDB-backed dataset.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files.
	// Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB in memory-only mode (no disk persistence).
	InMemory bool

	// Logger receives Badger's own log output. Nil discards it.
	Logger *slog.Logger
}

// BadgerDataset is a Dataset whose graphs share one BadgerDB instance.
type BadgerDataset struct {
	db     *badger.DB
	logger *slog.Logger

	mu     sync.Mutex
	graphs map[string]*Badger
	closed bool
}

// OpenBadger opens (or creates) a BadgerDB dataset.
func OpenBadger(opts BadgerOptions) (*BadgerDataset, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("graph: %w: badger directory is required for on-disk mode", rdf.ErrConfiguration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger: logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("graph: %w: open badger: %w", rdf.ErrConfiguration, err)
	}
	return &BadgerDataset{db: db, logger: logger, graphs: make(map[string]*Badger)}, nil
}

// Graph returns the named graph. The empty name is the default graph.
func (d *BadgerDataset) Graph(name string) (Graph, error) {
	if strings.IndexByte(name, keySep) >= 0 || len(name) > maxGraphNameLen {
		return nil, fmt.Errorf("graph: %w: invalid graph name %q", rdf.ErrConfiguration, name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("graph: %w: dataset closed", rdf.ErrConfiguration)
	}
	g, ok := d.graphs[name]
	if !ok {
		g = &Badger{db: d.db, name: name}
		d.graphs[name] = g
	}
	return g, nil
}

// Close closes the underlying database. Graphs obtained earlier stop working.
func (d *BadgerDataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// Badger is one named graph inside a BadgerDataset.
type Badger struct {
	db   *badger.DB
	name string
}

func (b *Badger) Add(ctx context.Context, triples ...rdf.Triple) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if len(triples) == 0 {
		return nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, t := range triples {
		value, err := encodeTriple(t)
		if err != nil {
			return err
		}
		if err := wb.Set(b.subjectKey(t), value); err != nil {
			return fmt.Errorf("graph: add: %w", err)
		}
		if err := wb.Set(b.predicateKey(t), value); err != nil {
			return fmt.Errorf("graph: add: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("graph: add: %w", err)
	}
	return nil
}

func (b *Badger) Remove(ctx context.Context, p Pattern) error {
	matches, err := b.Match(ctx, p)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, t := range matches {
		if err := wb.Delete(b.subjectKey(t)); err != nil {
			return fmt.Errorf("graph: remove: %w", err)
		}
		if err := wb.Delete(b.predicateKey(t)); err != nil {
			return fmt.Errorf("graph: remove: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("graph: remove: %w", err)
	}
	return nil
}

func (b *Badger) Contains(ctx context.Context, p Pattern) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	if p.S != nil && p.P.Value != "" && p.O != nil {
		key := b.subjectKey(rdf.Triple{S: p.S, P: p.P, O: p.O})
		err := b.db.View(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			return err
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("graph: contains: %w", err)
		}
		return true, nil
	}
	found := false
	err := b.scan(p, func(rdf.Triple) bool {
		found = true
		return false
	})
	return found, err
}

// Match returns the matching triples sorted by their N-Triples rendering.
func (b *Badger) Match(ctx context.Context, p Pattern) ([]rdf.Triple, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	var out []rdf.Triple
	err := b.scan(p, func(t rdf.Triple) bool {
		out = append(out, t)
		return true
	})
	if err != nil {
		return nil, err
	}
	sortTriples(out)
	return out, nil
}

func (b *Badger) Select(ctx context.Context, constraints []Constraint) ([]rdf.Term, error) {
	return SelectSubjects(ctx, b, constraints)
}

func (b *Badger) Closure(ctx context.Context, subject rdf.Term) ([]rdf.Triple, error) {
	return BoundedDescription(ctx, b, subject)
}

// scan walks the narrowest key range covering p and calls fn for every
// matching triple until fn returns false.
func (b *Badger) scan(p Pattern, fn func(rdf.Triple) bool) error {
	prefix := b.scanPrefix(p)
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			t, err := decodeTriple(value)
			if err != nil {
				return err
			}
			if !p.Matches(t) {
				continue
			}
			if !fn(t) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("graph: scan: %w", err)
	}
	return nil
}

func (b *Badger) scanPrefix(p Pattern) []byte {
	switch {
	case p.S != nil:
		return b.key(subjectIndex, rdf.FormatTerm(p.S), "")
	case p.P.Value != "" && p.O != nil:
		return b.key(predicateIndex, rdf.FormatTerm(p.P), digest(rdf.FormatTerm(p.O)), "")
	case p.P.Value != "":
		return b.key(predicateIndex, rdf.FormatTerm(p.P), "")
	default:
		return b.key(subjectIndex, "")
	}
}

func (b *Badger) subjectKey(t rdf.Triple) []byte {
	return b.key(subjectIndex, rdf.FormatTerm(t.S), digest(rdf.FormatTerm(t.P)+" "+rdf.FormatTerm(t.O)))
}

func (b *Badger) predicateKey(t rdf.Triple) []byte {
	return b.key(predicateIndex, rdf.FormatTerm(t.P), digest(rdf.FormatTerm(t.O)), digest(rdf.FormatTerm(t.S)))
}

// key joins index, graph name and parts with the separator. A trailing
// empty part yields a prefix that ends in the separator.
func (b *Badger) key(index string, parts ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString(index)
	buf.WriteByte(keySep)
	buf.WriteString(b.name)
	for _, part := range parts {
		buf.WriteByte(keySep)
		buf.WriteString(part)
	}
	return buf.Bytes()
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type termRecord struct {
	Kind     rdf.TermKind `msgpack:"k"`
	Value    string       `msgpack:"v"`
	Datatype string       `msgpack:"d,omitempty"`
	Lang     string       `msgpack:"l,omitempty"`
}

type tripleRecord struct {
	S termRecord `msgpack:"s"`
	P string     `msgpack:"p"`
	O termRecord `msgpack:"o"`
}

func encodeTriple(t rdf.Triple) ([]byte, error) {
	s, err := toRecord(t.S)
	if err != nil {
		return nil, err
	}
	o, err := toRecord(t.O)
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(tripleRecord{S: s, P: t.P.Value, O: o})
	if err != nil {
		return nil, fmt.Errorf("graph: encode triple: %w", err)
	}
	return data, nil
}

func decodeTriple(data []byte) (rdf.Triple, error) {
	var rec tripleRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return rdf.Triple{}, fmt.Errorf("graph: decode triple: %w", err)
	}
	s, err := fromRecord(rec.S)
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := fromRecord(rec.O)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{S: s, P: rdf.IRI{Value: rec.P}, O: o}, nil
}

func toRecord(term rdf.Term) (termRecord, error) {
	switch v := term.(type) {
	case rdf.IRI:
		return termRecord{Kind: rdf.TermIRI, Value: v.Value}, nil
	case rdf.BlankNode:
		return termRecord{Kind: rdf.TermBlankNode, Value: v.ID}, nil
	case rdf.Literal:
		return termRecord{Kind: rdf.TermLiteral, Value: v.Lexical, Datatype: v.Datatype.Value, Lang: v.Lang}, nil
	default:
		return termRecord{}, fmt.Errorf("graph: unsupported term %T", term)
	}
}

func fromRecord(rec termRecord) (rdf.Term, error) {
	switch rec.Kind {
	case rdf.TermIRI:
		return rdf.IRI{Value: rec.Value}, nil
	case rdf.TermBlankNode:
		return rdf.BlankNode{ID: rec.Value}, nil
	case rdf.TermLiteral:
		return rdf.Literal{Lexical: rec.Value, Datatype: rdf.IRI{Value: rec.Datatype}, Lang: rec.Lang}, nil
	default:
		return nil, fmt.Errorf("graph: unknown term kind %d", rec.Kind)
	}
}

// badgerLogger routes Badger's printf-style logging into slog. Badger is
// chatty at info level, so info lines are demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) { l.log(slog.LevelError, f, v) }
func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.log(slog.LevelWarn, f, v)
}
func (l badgerLogger) Infof(f string, v ...interface{})  { l.log(slog.LevelDebug, f, v) }
func (l badgerLogger) Debugf(f string, v ...interface{}) { l.log(slog.LevelDebug, f, v) }

func (l badgerLogger) log(level slog.Level, f string, v []interface{}) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	l.logger.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(f, v...)), "component", "badger")
}
