package godb

// SeqScan reads every tuple of a DBFile in storage order, tagging each with
// the supplied table alias.
type SeqScan struct {
	file  DBFile
	alias string

	tid    TransactionID
	iter   func() (*Tuple, error)
	peeked *Tuple
}

// NewSeqScan creates a scan of f whose result tuples carry alias as their
// TableQualifier (so a self-join can tell the two sides of the same table
// apart).
func NewSeqScan(f DBFile, alias string) *SeqScan {
	return &SeqScan{file: f, alias: alias}
}

func (s *SeqScan) GetTupleDesc() *TupleDesc {
	d := s.file.Descriptor().copy()
	d.setTableAlias(s.alias)
	return d
}

func (s *SeqScan) Open(tid TransactionID) error {
	iter, err := s.file.Iterator(tid)
	if err != nil {
		return err
	}
	s.tid = tid
	s.iter = iter
	s.peeked = nil
	return nil
}

func (s *SeqScan) Close() error {
	s.iter = nil
	s.peeked = nil
	return nil
}

func (s *SeqScan) Rewind() error {
	return s.Open(s.tid)
}

func (s *SeqScan) HasNext() (bool, error) {
	if s.peeked != nil {
		return true, nil
	}
	if s.iter == nil {
		return false, GoDBError{IllegalOperationError, "SeqScan.HasNext called before Open"}
	}
	t, err := s.iter()
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, nil
	}
	t.Desc = *s.GetTupleDesc()
	s.peeked = t
	return true, nil
}

func (s *SeqScan) Next() (*Tuple, error) {
	has, err := s.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, GoDBError{NoSuchElementError, "SeqScan: no more tuples"}
	}
	t := s.peeked
	s.peeked = nil
	return t, nil
}
