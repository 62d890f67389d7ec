package godb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockManagerUpgradeWhenSoleHolder(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	tid := NewTID()

	require.NoError(t, lm.acquire(pid, tid, ReadPerm))
	require.NoError(t, lm.acquire(pid, tid, WritePerm), "sole S-holder must be able to upgrade to X")
	require.True(t, lm.holds(pid, tid))
}

func TestLockManagerUpgradeBlockedByOtherHolderAborts(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	t1, t2 := NewTID(), NewTID()

	require.NoError(t, lm.acquire(pid, t1, ReadPerm))
	require.NoError(t, lm.acquire(pid, t2, ReadPerm))

	err := lm.acquire(pid, t1, WritePerm)
	require.Error(t, err, "t1 cannot upgrade to X while t2 also holds S")
	require.True(t, IsTransactionAborted(err))
}

func TestLockManagerExclusiveExcludesOthers(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	t1, t2 := NewTID(), NewTID()

	require.NoError(t, lm.acquire(pid, t1, WritePerm))
	err := lm.acquire(pid, t2, ReadPerm)
	require.Error(t, err)
	require.True(t, IsTransactionAborted(err))
}

func TestLockManagerReleaseFreesPage(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	t1, t2 := NewTID(), NewTID()

	require.NoError(t, lm.acquire(pid, t1, WritePerm))
	lm.release(t1)
	require.False(t, lm.holds(pid, t1))
	require.NoError(t, lm.acquire(pid, t2, WritePerm))
}
