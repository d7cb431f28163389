package editor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
)

func classBundle(api *classAPIStub) APIBundle {
	return APIBundle{Schedule: ClassSchedule{API: api, ClassID: 42}}
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	_, err := Open("exam", &SessionContext{}, classBundle(&classAPIStub{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestOpenEditWithoutInitialEvent(t *testing.T) {
	_, err := Open(KindLesson, &SessionContext{Mode: ModeEdit}, classBundle(&classAPIStub{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestOpenFailsOnCapabilityMismatch(t *testing.T) {
	_, err := Open(KindInvigilate, &SessionContext{Mode: ModeAdd}, classBundle(&classAPIStub{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrCapabilityMismatch))

	staff := APIBundle{Schedule: StaffSchedule{API: &staffAPIStub{}, StaffID: 7}}
	_, err = Open(KindLesson, &SessionContext{Mode: ModeAdd}, staff)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrCapabilityMismatch))
}

func TestAddLessonOverBookedRoomNeverSaves(t *testing.T) {
	api := &classAPIStub{}
	sctx := lessonContext([]timetable.Booking{
		{Resource: 1, Range: timetable.TimeRange{Start: 1500, End: 2500}, Owner: "l-9"},
	}, nil)
	sess, err := Open(KindLesson, sctx, classBundle(api))
	require.NoError(t, err)

	_, err = sess.Patch(FormPatch{RoomID: room(1)})
	require.NoError(t, err)

	err = sess.Confirm(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Messages, 1)
	assert.Contains(t, verr.Messages[0], "room 1")

	assert.Empty(t, api.added)
	assert.False(t, sess.Closed())
}

func TestEditLessonUnchangedHasNoErrors(t *testing.T) {
	api := &classAPIStub{}
	sctx := lessonContext([]timetable.Booking{
		{Resource: 1, Range: timetable.TimeRange{Start: 1000, End: 2000}, Owner: "l-1"},
	}, nil)
	sctx.Mode = ModeEdit
	sctx.Initial = &Event{ID: "l-1", Kind: KindLesson, Range: timetable.TimeRange{Start: 1000, End: 2000}, RoomID: room(1), RepeatCount: 1}

	sess, err := Open(KindLesson, sctx, classBundle(api))
	require.NoError(t, err)

	messages, err := sess.Validate()
	require.NoError(t, err)
	assert.Empty(t, messages)

	require.NoError(t, sess.Confirm(context.Background()))
	require.Len(t, api.edited, 1)
	assert.Equal(t, timetable.EventID("l-1"), api.edited[0].ID)
	assert.Equal(t, int64(42), api.classID)
	assert.True(t, sess.Closed())
}

func TestEditLessonUnknownOwnerInSnapshotHasNoErrors(t *testing.T) {
	sctx := lessonContext([]timetable.Booking{
		{Resource: 1, Range: timetable.TimeRange{Start: 1000, End: 2000}},
	}, nil)
	sctx.Mode = ModeEdit
	sctx.Initial = &Event{ID: "l-1", Kind: KindLesson, Range: timetable.TimeRange{Start: 1000, End: 2000}, RoomID: room(1), RepeatCount: 1}

	sess, err := Open(KindLesson, sctx, classBundle(&classAPIStub{}))
	require.NoError(t, err)

	messages, err := sess.Validate()
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestEditLessonSecondIdenticalBookingStillConflicts(t *testing.T) {
	slot := timetable.TimeRange{Start: 1000, End: 2000}
	sctx := lessonContext([]timetable.Booking{
		{Resource: 1, Range: slot},
		{Resource: 1, Range: slot},
	}, nil)
	sctx.Mode = ModeEdit
	sctx.Initial = &Event{Kind: KindLesson, Range: slot, RoomID: room(1), RepeatCount: 1}

	sess, err := Open(KindLesson, sctx, classBundle(&classAPIStub{}))
	require.NoError(t, err)

	messages, err := sess.Validate()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "room 1")
}

func TestDeleteLessonSendsRepeatCount(t *testing.T) {
	api := &classAPIStub{}
	sctx := lessonContext(nil, nil)
	sctx.Mode = ModeEdit
	sctx.Initial = &Event{ID: "l-1", Kind: KindLesson, Range: timetable.TimeRange{Start: 1000, End: 2000}, RoomID: room(1), RepeatCount: 1}

	sess, err := Open(KindLesson, sctx, classBundle(api))
	require.NoError(t, err)
	_, err = sess.Patch(FormPatch{RepeatCount: intPtr(3)})
	require.NoError(t, err)

	require.NoError(t, sess.Delete(context.Background()))
	require.Len(t, api.deleted, 1)
	assert.Equal(t, LessonDelete{ID: "l-1", RepeatNum: 3}, api.deleted[0])
	assert.True(t, sess.Closed())
}

func TestDeleteRequiresEditMode(t *testing.T) {
	sess, err := Open(KindLesson, lessonContext(nil, nil), classBundle(&classAPIStub{}))
	require.NoError(t, err)
	err = sess.Delete(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.False(t, sess.Closed())
}

func TestRejectionCarriesConflictDetail(t *testing.T) {
	api := &classAPIStub{reply: &Reply{
		Code:    intPtr(409),
		Message: "冲突",
		Data:    json.RawMessage(`{"room_error":["R1 busy"]}`),
	}}
	sctx := lessonContext(nil, nil)
	sess, err := Open(KindLesson, sctx, classBundle(api))
	require.NoError(t, err)
	_, err = sess.Patch(FormPatch{RoomID: room(2)})
	require.NoError(t, err)

	err = sess.Confirm(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackendRejected))

	var rej *BackendRejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "冲突", rej.Message)
	require.True(t, rej.Structured())
	assert.Equal(t, []string{"R1 busy"}, rej.Data.RoomErrors)
	assert.Equal(t, []string{}, rej.Data.TeacherErrors)
	assert.Equal(t, []string{}, rej.Data.StudentErrors)

	assert.False(t, sess.Closed(), "a rejected save keeps the session open")
	assert.Equal(t, timetable.ResourceID(2), *sess.Form().RoomID)
}

func TestRejectionWithoutDetail(t *testing.T) {
	for name, data := range map[string]string{
		"absent":    ``,
		"null":      `null`,
		"string":    `"busy"`,
		"other map": `{"reason":"busy"}`,
	} {
		t.Run(name, func(t *testing.T) {
			err := rejection(&Reply{Code: intPtr(500), Message: "failed", Data: json.RawMessage(data)})
			var rej *BackendRejection
			require.True(t, errors.As(err, &rej))
			assert.False(t, rej.Structured())
			assert.Equal(t, "failed", rej.Message)
		})
	}
}

func TestStaffShapeInvigilateUsesStatusConvention(t *testing.T) {
	inv := &invigilateAPIStub{reply: okCode()}
	bundle := APIBundle{Schedule: StaffSchedule{API: &staffAPIStub{}, StaffID: 7}, Invigilate: inv}
	sctx := &SessionContext{Mode: ModeAdd, Selection: timetable.TimeRange{Start: 0, End: 60}, Topics: []TopicOption{{ID: 1, Name: "Finals"}}, StaffID: 7}

	sess, err := Open(KindInvigilate, sctx, bundle)
	require.NoError(t, err)
	err = sess.Confirm(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrBackendRejected))

	inv.reply = okStatus()
	require.NoError(t, sess.Confirm(context.Background()))
	assert.Len(t, inv.added, 2)
}

func TestConfirmWhileBusy(t *testing.T) {
	api := &classAPIStub{block: make(chan struct{})}
	sess, err := Open(KindLesson, lessonContext(nil, nil), classBundle(api))
	require.NoError(t, err)
	_, err = sess.Patch(FormPatch{RoomID: room(1)})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sess.Confirm(context.Background()) }()

	require.Eventually(t, func() bool { return sess.View().Busy }, time.Second, 5*time.Millisecond)

	_, err = sess.Patch(FormPatch{RoomID: room(2)})
	assert.True(t, errors.Is(err, appErrors.ErrSessionBusy))
	assert.True(t, errors.Is(sess.Confirm(context.Background()), appErrors.ErrSessionBusy))
	assert.True(t, errors.Is(sess.Cancel(), appErrors.ErrSessionBusy))

	close(api.block)
	require.NoError(t, <-done)
	assert.True(t, sess.Closed())
	assert.Len(t, api.added, 1)
}

func TestClosedSessionRefusesActions(t *testing.T) {
	sess, err := Open(KindLesson, lessonContext(nil, nil), classBundle(&classAPIStub{}))
	require.NoError(t, err)
	require.NoError(t, sess.Cancel())
	require.NoError(t, sess.Cancel())

	_, err = sess.Patch(FormPatch{RoomID: room(1)})
	assert.True(t, errors.Is(err, appErrors.ErrSessionClosed))
	_, err = sess.Validate()
	assert.True(t, errors.Is(err, appErrors.ErrSessionClosed))
	assert.True(t, errors.Is(sess.Confirm(context.Background()), appErrors.ErrSessionClosed))
	assert.Equal(t, FormState{}, sess.Form())
}

func TestViewDescribesForm(t *testing.T) {
	sess, err := Open(KindLesson, lessonContext(nil, nil), classBundle(&classAPIStub{}))
	require.NoError(t, err)
	view := sess.View()
	assert.Equal(t, sess.ID(), view.ID)
	assert.Equal(t, KindLesson, view.Kind)
	assert.Equal(t, ModeAdd, view.Mode)
	assert.Equal(t, StateOpen, view.State)
	assert.Equal(t, "class schedule", view.Shape)
	assert.Equal(t, "Add lesson", view.Descriptor.Title)
}
