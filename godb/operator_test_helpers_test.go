package godb

// testSliceOp is an in-memory Operator over a fixed slice of tuples, used by
// operator tests that don't need a real heap file backing them.
type testSliceOp struct {
	desc    *TupleDesc
	tuples  []*Tuple
	pos     int
	started bool
}

func newTestSliceOp(desc *TupleDesc, tuples []*Tuple) *testSliceOp {
	return &testSliceOp{desc: desc, tuples: tuples}
}

func (s *testSliceOp) GetTupleDesc() *TupleDesc { return s.desc }
func (s *testSliceOp) Open(tid TransactionID) error {
	s.pos = 0
	s.started = true
	return nil
}
func (s *testSliceOp) Close() error  { s.started = false; return nil }
func (s *testSliceOp) Rewind() error { s.pos = 0; return nil }
func (s *testSliceOp) HasNext() (bool, error) {
	return s.pos < len(s.tuples), nil
}
func (s *testSliceOp) Next() (*Tuple, error) {
	has, _ := s.HasNext()
	if !has {
		return nil, GoDBError{NoSuchElementError, "testSliceOp: exhausted"}
	}
	t := s.tuples[s.pos]
	s.pos++
	return t, nil
}
