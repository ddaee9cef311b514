package smpsc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOOrder(t *testing.T) {
	tx, rx := Unbounded[int]()

	for i := 0; i < 100; i++ {
		tx.Send(i)
	}
	require.Equal(t, 100, rx.Len())

	for i := 0; i < 100; i++ {
		v, ok := rx.Recv()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	_, ok := rx.Recv()
	assert.False(t, ok)
}

func TestClonedSendersShareOrder(t *testing.T) {
	tx, rx := Unbounded[string]()
	a := tx.Clone()
	b := a.Clone()

	b.Send("first")
	tx.Send("second")
	a.Send("third")

	assert.True(t, tx.SameQueue(a))
	assert.True(t, a.SameQueue(b))

	var got []string
	for v, ok := rx.Recv(); ok; v, ok = rx.Recv() {
		got = append(got, v)
	}
	assert.Equal(t, []string{"first", "second", "third"}, got)
	assert.Equal(t, uint64(3), rx.Sent())
}

func TestSeparateQueuesAreIndependent(t *testing.T) {
	tx1, rx1 := Unbounded[int]()
	tx2, rx2 := Unbounded[int]()

	tx1.Send(1)
	assert.False(t, tx1.SameQueue(tx2))
	assert.False(t, tx1.SameQueue(nil))
	assert.Equal(t, 1, rx1.Len())
	assert.Equal(t, 0, rx2.Len())

	tx2.Send(2)
	v, ok := rx2.Recv()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInterleavedSendRecv(t *testing.T) {
	tx, rx := Unbounded[int]()

	tx.Send(1)
	tx.Send(2)
	v, _ := rx.Recv()
	assert.Equal(t, 1, v)

	// items sent while draining are picked up by the same drain loop
	tx.Send(3)
	var rest []int
	for v, ok := rx.Recv(); ok; v, ok = rx.Recv() {
		rest = append(rest, v)
	}
	assert.Equal(t, []int{2, 3}, rest)
}

func TestReceiverSender(t *testing.T) {
	_, rx := Unbounded[int]()
	tx := rx.Sender()
	tx.Send(7)

	v, ok := rx.Recv()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestClose(t *testing.T) {
	tx, rx := Unbounded[int]()
	tx.Send(1)
	tx.Send(2)

	assert.Equal(t, 2, rx.Close())
	assert.True(t, rx.Closed())
	assert.Equal(t, 0, rx.Len())

	tx.Send(3)
	assert.Equal(t, 0, rx.Len())
	assert.Equal(t, 0, rx.Close())
}
