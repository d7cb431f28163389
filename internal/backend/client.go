// Package backend talks to the schedule backend that persists lessons, invigilations and
// unavailability. One Client serves every API of the editor bundle.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-editor/internal/editor"
	"github.com/noah-isme/sma-timetable-editor/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
	"github.com/noah-isme/sma-timetable-editor/pkg/middleware/requestid"
)

// maxReplyBytes bounds how much of a reply body is read.
const maxReplyBytes = 1 << 20

// Observer receives one sample per backend call.
type Observer interface {
	ObserveBackendCall(operation string, ok bool, duration time.Duration)
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	requestIDKey
)

// WithToken attaches the caller's bearer token, forwarded on every backend call.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// WithRequestID attaches the request id, forwarded for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// TokenFromContext returns the bearer token attached by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// RequestIDFromContext returns the request id attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Client implements editor.InvigilateAPI and editor.UnavailabilityAPI over HTTP. Class and Staff
// expose the two lesson APIs.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

var (
	_ editor.ClassScheduleAPI  = ClassAPI{}
	_ editor.StaffScheduleAPI  = StaffAPI{}
	_ editor.InvigilateAPI     = (*Client)(nil)
	_ editor.UnavailabilityAPI = (*Client)(nil)
)

// NewClient constructs a backend client.
func NewClient(cfg config.BackendConfig, logger *zap.Logger, observer Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		observer: observer,
	}
}

// Class returns the lesson API of the class timetable backend.
func (c *Client) Class() ClassAPI { return ClassAPI{client: c} }

// Staff returns the lesson API of the legacy staff timetable backend.
func (c *Client) Staff() StaffAPI { return StaffAPI{client: c} }

// ClassAPI edits lessons keyed by class id.
type ClassAPI struct{ client *Client }

// AddLesson creates a lesson, repeated weekly RepeatNum times.
func (a ClassAPI) AddLesson(ctx context.Context, classID int64, p editor.LessonPayload) (*editor.Reply, error) {
	return a.client.post(ctx, "class.lesson.add", fmt.Sprintf("/classes/%d/lessons/add", classID), p)
}

// EditLesson updates a lesson.
func (a ClassAPI) EditLesson(ctx context.Context, classID int64, p editor.LessonPayload) (*editor.Reply, error) {
	return a.client.post(ctx, "class.lesson.edit", fmt.Sprintf("/classes/%d/lessons/edit", classID), p)
}

// DeleteLesson removes a lesson and its following repeats.
func (a ClassAPI) DeleteLesson(ctx context.Context, classID int64, d editor.LessonDelete) (*editor.Reply, error) {
	return a.client.post(ctx, "class.lesson.delete", fmt.Sprintf("/classes/%d/lessons/delete", classID), d)
}

// StaffAPI edits lessons keyed by staff id. The legacy backend has no add endpoint.
type StaffAPI struct{ client *Client }

// EditLesson updates a lesson on a teacher's timetable.
func (a StaffAPI) EditLesson(ctx context.Context, staffID int64, p editor.LessonPayload) (*editor.Reply, error) {
	return a.client.post(ctx, "staff.lesson.edit", fmt.Sprintf("/staff/%d/lessons/edit", staffID), p)
}

// DeleteLesson removes a lesson from a teacher's timetable.
func (a StaffAPI) DeleteLesson(ctx context.Context, staffID int64, d editor.LessonDelete) (*editor.Reply, error) {
	return a.client.post(ctx, "staff.lesson.delete", fmt.Sprintf("/staff/%d/lessons/delete", staffID), d)
}

// AddInvigilate assigns a teacher to an invigilation.
func (c *Client) AddInvigilate(ctx context.Context, staffID int64, p editor.InvigilatePayload) (*editor.Reply, error) {
	return c.post(ctx, "invigilate.add", fmt.Sprintf("/staff/%d/invigilations/add", staffID), p)
}

// UpdateInvigilate changes an invigilation.
func (c *Client) UpdateInvigilate(ctx context.Context, staffID int64, p editor.InvigilatePayload) (*editor.Reply, error) {
	return c.post(ctx, "invigilate.update", fmt.Sprintf("/staff/%d/invigilations/update", staffID), p)
}

// DeleteInvigilate removes an invigilation.
func (c *Client) DeleteInvigilate(ctx context.Context, staffID int64, d editor.InvigilateDelete) (*editor.Reply, error) {
	return c.post(ctx, "invigilate.delete", fmt.Sprintf("/staff/%d/invigilations/delete", staffID), d)
}

// UpdateUnavailable replaces unavailable ranges of a teacher.
func (c *Client) UpdateUnavailable(ctx context.Context, staffID int64, u editor.UnavailableUpdate) (*editor.Reply, error) {
	return c.post(ctx, "unavailable.update", fmt.Sprintf("/staff/%d/unavailable", staffID), u)
}

// post sends one JSON call. Any reply that decodes is returned as is; deciding success is up to
// the caller's reply convention.
func (c *Client) post(ctx context.Context, op, path string, body interface{}) (*editor.Reply, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode backend payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build backend request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(requestid.Header(), id)
	}

	start := time.Now()
	reply, err := c.do(req)
	duration := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveBackendCall(op, err == nil, duration)
	}
	if err != nil {
		c.logger.Warn("schedule backend call failed",
			zap.String("operation", op),
			zap.String("path", path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("schedule backend replied",
		zap.String("operation", op),
		zap.Duration("duration", duration),
		zap.String("message", reply.Message),
	)
	return reply, nil
}

func (c *Client) do(req *http.Request) (*editor.Reply, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, appErrors.ErrBackendUnavailable.Message)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "read backend reply")
	}

	var reply editor.Reply
	if err := json.Unmarshal(raw, &reply); err != nil || (reply.Code == nil && reply.Status == nil) {
		if err == nil {
			err = fmt.Errorf("reply carries neither code nor status")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status,
			fmt.Sprintf("unexpected backend reply (http %d)", resp.StatusCode))
	}
	return &reply, nil
}

// Bundle assembles the editor API bundle for one session. shape picks the lesson backend; the
// invigilation and unavailability APIs are always served by this client.
func (c *Client) Bundle(shape string, classID, staffID int64) editor.APIBundle {
	bundle := editor.APIBundle{Invigilate: c, Unavailability: c}
	switch shape {
	case config.BackendShapeStaff:
		bundle.Schedule = editor.StaffSchedule{API: c.Staff(), StaffID: staffID}
	default:
		bundle.Schedule = editor.ClassSchedule{API: c.Class(), ClassID: classID}
	}
	return bundle
}
