package ws

import (
	"context"
	"errors"
	"testing"

	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/cdrintake/internal/delivery"
	"github.com/kiliankoe/cdrintake/internal/intake"
	"github.com/kiliankoe/cdrintake/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event string
	args  []interface{}
}

// fakeConn implements just the parts of socketio.Conn the handlers touch.
type fakeConn struct {
	socketio.Conn
	id   string
	ctx  interface{}
	sent []emitted
}

func (f *fakeConn) ID() string                 { return f.id }
func (f *fakeConn) Context() interface{}       { return f.ctx }
func (f *fakeConn) SetContext(ctx interface{}) { f.ctx = ctx }

func (f *fakeConn) Emit(event string, v ...interface{}) {
	f.sent = append(f.sent, emitted{event: event, args: v})
}

func (f *fakeConn) last(event string) (emitted, bool) {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].event == event {
			return f.sent[i], true
		}
	}
	return emitted{}, false
}

func TestApplyWithoutSessionEmitsError(t *testing.T) {
	srv := New(intake.NewManager(), nil)
	c := &fakeConn{id: "c1", ctx: &ConnCtx{}}
	res := srv.apply(c, func(*intake.Session) error { return nil })
	assert.Equal(t, "session_not_found", res["error"])
	e, ok := c.last("error")
	require.True(t, ok)
	assert.Equal(t, "session_not_found", e.args[0].(map[string]any)["code"])
}

func TestApplyBroadcastsStateToAttachedConns(t *testing.T) {
	sm := intake.NewManager()
	srv := New(sm, nil)
	sess := sm.Create()
	a := &fakeConn{id: "a", ctx: &ConnCtx{}}
	b := &fakeConn{id: "b", ctx: &ConnCtx{}}
	srv.attach(a, sess.ID)
	srv.attach(b, sess.ID)

	res := srv.apply(a, func(s *intake.Session) error { return s.UpdateScratch("Asha") })
	assert.Equal(t, true, res["ok"])

	for _, c := range []*fakeConn{a, b} {
		e, ok := c.last("intake:state")
		require.True(t, ok, c.id)
		assert.Equal(t, "Asha", e.args[0].(intake.Snapshot).Scratch)
	}
}

func TestApplyReportsRefusedTransition(t *testing.T) {
	sm := intake.NewManager()
	srv := New(sm, nil)
	sess := sm.Create()
	c := &fakeConn{id: "c", ctx: &ConnCtx{}}
	srv.attach(c, sess.ID)

	res := srv.apply(c, func(s *intake.Session) error {
		_, err := s.Advance()
		return err
	})
	assert.Equal(t, "invalid_step_value", res["error"])
	assert.Equal(t, 0, sess.Snapshot().StepIndex)
}

func TestAttachMovesConnectionBetweenSessions(t *testing.T) {
	sm := intake.NewManager()
	srv := New(sm, nil)
	first, second := sm.Create(), sm.Create()
	c := &fakeConn{id: "c", ctx: &ConnCtx{}}

	srv.attach(c, first.ID)
	srv.attach(c, second.ID)
	assert.Empty(t, srv.conns(first.ID))
	assert.Len(t, srv.conns(second.ID), 1)

	got, err := srv.current(c)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	srv.removeMember(second.ID, c)
	assert.Empty(t, srv.conns(second.ID))
}

func TestErrMapsCodes(t *testing.T) {
	srv := New(intake.NewManager(), nil)
	c := &fakeConn{id: "c"}
	res := srv.err(c, intake.ErrOutOfRange)
	assert.Equal(t, "out_of_range", res["error"])
	res = srv.err(c, errors.New("boom"))
	assert.Equal(t, "bad_request", res["error"])
}

type downStore struct {
	*store.MemoryStore
	down bool
}

func (s *downStore) SaveSubmission(ctx context.Context, sub intake.Submission) error {
	if s.down {
		return errors.New("database is locked")
	}
	return s.MemoryStore.SaveSubmission(ctx, sub)
}

func TestResubmitAfterFailedDelivery(t *testing.T) {
	sm := intake.NewManager()
	st := &downStore{MemoryStore: store.NewMemoryStore(), down: true}
	d := delivery.NewDispatcher(st)
	srv := New(sm, d)
	sess := sm.Create()
	c := &fakeConn{id: "c", ctx: &ConnCtx{}}
	srv.attach(c, sess.ID)

	res := srv.resubmit(c, sess)
	assert.Equal(t, "not_complete", res["error"])

	var snap intake.Snapshot
	for _, v := range []string{"Asha Gurung", "asha@example.com", "9801234567", "Civil Engineering", "Hello"} {
		require.NoError(t, sess.UpdateScratch(v))
		var err error
		snap, err = sess.Advance()
		require.NoError(t, err)
	}
	_, err := d.Complete(context.Background(), snap)
	require.Error(t, err)

	res = srv.resubmit(c, sess)
	assert.Equal(t, "delivery_failed", res["error"])

	st.down = false
	res = srv.resubmit(c, sess)
	assert.Equal(t, true, res["dispatched"])
	e, ok := c.last("intake:submitted")
	require.True(t, ok)
	assert.Equal(t, snap.Submission.ID, e.args[0].(map[string]any)["submissionId"])

	res = srv.resubmit(c, sess)
	assert.Equal(t, false, res["dispatched"])
}
