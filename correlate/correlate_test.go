package correlate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aautushka/protoserv/wire"
)

type reply struct{ Code int }

func decodeReply(b []byte) (reply, error) {
	return reply{Code: int(b[0])}, nil
}

func newTestCorrelator() *Correlator {
	proto := wire.NewProtocol("test", wire.TypeOf[reply]())
	return New(proto)
}

func TestDispatchDeliversToPendingSubscriber(t *testing.T) {
	c := newTestCorrelator()
	var got reply
	var gotErr error
	Subscribe(c, decodeReply, func(r reply, err error) {
		got, gotErr = r, err
	})
	require.Equal(t, 1, c.Pending())

	tag := wire.TagOf[reply](c.proto)
	consumed := c.Dispatch(tag, []byte{7})

	require.True(t, consumed)
	require.NoError(t, gotErr)
	require.Equal(t, reply{Code: 7}, got)
	require.True(t, c.Done())
}

func TestDispatchWithNoSubscriberFallsBackToAmbientQueue(t *testing.T) {
	c := newTestCorrelator()
	tag := wire.TagOf[reply](c.proto)

	consumed := c.Dispatch(tag, []byte{3})
	require.False(t, consumed, "an unclaimed frame must not be reported consumed")

	msg, ok, err := WaitMessage(c, decodeReply)
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, reply{Code: 3}, msg)
}

func TestWaitMessageNonBlockingWhenAmbientQueueEmpty(t *testing.T) {
	c := newTestCorrelator()
	_, ok, err := WaitMessage(c, decodeReply)
	require.False(t, ok)
	require.NoError(t, err)
}

func TestSubscriberTakesPriorityOverAmbientQueue(t *testing.T) {
	c := newTestCorrelator()
	tag := wire.TagOf[reply](c.proto)

	// A frame lands in the ambient queue first, with no one waiting...
	c.Dispatch(tag, []byte{1})

	// ...then a subscriber shows up. The next Dispatch must still go to
	// the subscriber, not silently join the ambient queue behind it.
	var got reply
	Subscribe(c, decodeReply, func(r reply, _ error) { got = r })
	consumed := c.Dispatch(tag, []byte{2})
	require.True(t, consumed)
	require.Equal(t, reply{Code: 2}, got)

	// The frame from before the subscription is still sitting in the
	// ambient queue, untouched.
	msg, ok, _ := WaitMessage(c, decodeReply)
	require.True(t, ok)
	require.Equal(t, reply{Code: 1}, msg)
}

func TestCancelDeliversErrCancelledToEveryPendingSubscriber(t *testing.T) {
	c := newTestCorrelator()
	var err1, err2 error
	Subscribe(c, decodeReply, func(_ reply, err error) { err1 = err })
	Subscribe(c, decodeReply, func(_ reply, err error) { err2 = err })

	c.Cancel()

	require.ErrorIs(t, err1, ErrCancelled)
	require.ErrorIs(t, err2, ErrCancelled)
	require.True(t, c.Done())
}

func TestCancelDoesNotCancelResubscriptionMadeDuringCancellation(t *testing.T) {
	c := newTestCorrelator()
	var resubscribedErr error
	var resubscribed bool

	Subscribe(c, decodeReply, func(_ reply, err error) {
		if err == ErrCancelled && !resubscribed {
			resubscribed = true
			Subscribe(c, decodeReply, func(_ reply, err2 error) {
				resubscribedErr = err2
			})
		}
	})

	c.Cancel()

	require.True(t, resubscribed)
	require.NoError(t, resubscribedErr, "a subscription made from within a cancellation callback must survive the same Cancel pass")
	require.Equal(t, 1, c.Pending())
}

func TestAmbientQueueDropsOldestAtCapacity(t *testing.T) {
	c := newTestCorrelator()
	tag := wire.TagOf[reply](c.proto)

	for i := 0; i < ambientCapacity+1; i++ {
		c.Dispatch(tag, []byte{byte(i)})
	}

	msg, ok, _ := WaitMessage(c, decodeReply)
	require.True(t, ok)
	require.Equal(t, reply{Code: 1}, msg, "the oldest ambient entry (code 0) must have been dropped to make room")
}
