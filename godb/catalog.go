package godb

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

// Catalog is the registry of tables known to a running database: their
// backing HeapFiles and, once computed, their TableStats. It is the single
// lookup point a shell or planner uses to turn a table name into a DBFile.
type Catalog struct {
	mu     sync.RWMutex
	bp     *BufferPool
	tables map[string]*HeapFile
	byID   map[int]*HeapFile
	stats  map[string]*TableStats
}

// NewCatalog creates an empty Catalog backed by bp.
func NewCatalog(bp *BufferPool) *Catalog {
	return &Catalog{
		bp:     bp,
		tables: make(map[string]*HeapFile),
		byID:   make(map[int]*HeapFile),
		stats:  make(map[string]*TableStats),
	}
}

// AddTable registers an already-open HeapFile under name, and under its
// tableID for log_file.go's page lookups.
func (c *Catalog) AddTable(name string, f *HeapFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = f
	c.byID[f.tableID] = f
}

// GetTableByID looks up a table by its internal tableID, as recorded in a
// PageID. Used by log_file.go to reconstruct a page from a log record
// without the log needing to carry the table's schema itself.
func (c *Catalog) GetTableByID(id int) (*HeapFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.byID[id]
	if !ok {
		return nil, GoDBError{IllegalOperationError, fmt.Sprintf("no table registered with id %d", id)}
	}
	return f, nil
}

// GetTable looks up a table by name.
func (c *Catalog) GetTable(name string) (*HeapFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.tables[name]
	if !ok {
		return nil, GoDBError{IllegalOperationError, fmt.Sprintf("no such table %q", name)}
	}
	return f, nil
}

// TableNames returns every registered table name.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}

// manifest is the on-disk schema of a catalog YAML file: a list of tables,
// each with its backing file path and its column list.
type manifest struct {
	Tables []struct {
		Name   string `yaml:"name"`
		File   string `yaml:"file"`
		Fields []struct {
			Name string `yaml:"name"`
			Type string `yaml:"type"`
		} `yaml:"fields"`
	} `yaml:"tables"`
}

// LoadManifest reads a YAML catalog manifest (see manifest) and opens a
// HeapFile for each table it describes, registering it under its name.
func (c *Catalog) LoadManifest(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return GoDBError{IOError, fmt.Sprintf("failed to read manifest %s: %v", path, err)}
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return GoDBError{MalformedDataError, fmt.Sprintf("failed to parse manifest %s: %v", path, err)}
	}
	for _, tbl := range m.Tables {
		fields := make([]FieldType, 0, len(tbl.Fields))
		for _, f := range tbl.Fields {
			ftype, err := parseFieldType(f.Type)
			if err != nil {
				return GoDBError{MalformedDataError, fmt.Sprintf("table %s, field %s: %v", tbl.Name, f.Name, err)}
			}
			fields = append(fields, FieldType{Fname: f.Name, Ftype: ftype})
		}
		desc := &TupleDesc{Fields: fields}
		hf, err := NewHeapFile(tbl.File, desc, c.bp)
		if err != nil {
			return err
		}
		c.AddTable(tbl.Name, hf)
		log.WithFields(map[string]any{"table": tbl.Name, "file": tbl.File}).Info("registered table from manifest")
	}
	return nil
}

func parseFieldType(s string) (DBType, error) {
	switch s {
	case "int", "integer":
		return IntType, nil
	case "string", "text":
		return StringType, nil
	}
	return UnknownType, GoDBError{MalformedDataError, fmt.Sprintf("unknown field type %q", s)}
}

// RefreshStats recomputes and caches TableStats for a registered table.
func (c *Catalog) RefreshStats(name string, tid TransactionID) error {
	f, err := c.GetTable(name)
	if err != nil {
		return err
	}
	ts, err := ComputeTableStats(name, f, c.bp, tid)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.stats[name] = ts
	c.mu.Unlock()
	return nil
}

// Stats returns the cached TableStats for name, if RefreshStats has been
// called for it.
func (c *Catalog) Stats(name string) (*TableStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.stats[name]
	return ts, ok
}
