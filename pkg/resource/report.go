package resource

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
	"github.com/ajitpratap0/resourcekit/pkg/errors"
	"github.com/ajitpratap0/resourcekit/pkg/json"
)

// OperationError is the structured error captured into an operation report.
type OperationError struct {
	Message    string                 `json:"message"`
	Code       string                 `json:"code"`
	StatusCode int                    `json:"status_code"`
	Details    map[string]interface{} `json:"details"`
}

// OperationInfo is the report produced around every contract-method
// invocation: created fresh at the start of the call, finalized on both the
// success and failure paths, never reused across calls.
type OperationInfo struct {
	Method     string                 `json:"method"`
	Success    bool                   `json:"success"`
	Error      *OperationError        `json:"error,omitempty"`
	RowCount   int                    `json:"row_count"`
	StartedAt  time.Time              `json:"started_at"`
	EndedAt    time.Time              `json:"ended_at"`
	DurationMS float64                `json:"duration_ms"`
	Schema     map[string]interface{} `json:"schema,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// JSON returns the report as JSON bytes
func (i *OperationInfo) JSON() ([]byte, error) {
	return json.Marshal(i)
}

// Track runs an operation closure and returns its finalized report. The
// report is handed to the closure so providers can fill in row counts,
// schema, and metadata; timing, success, and structured error capture are
// handled here on both paths. The operation's error is returned alongside
// the report, never swallowed.
func Track(ctx context.Context, method string, op func(context.Context, *OperationInfo) error) (*OperationInfo, error) {
	info := &OperationInfo{
		Method:    method,
		StartedAt: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
	}

	err := op(ctx, info)

	info.EndedAt = time.Now().UTC()
	info.DurationMS = float64(info.EndedAt.Sub(info.StartedAt).Microseconds()) / 1000.0

	if err != nil {
		info.Success = false
		info.Error = capturedError(err)
		return info, err
	}

	info.Success = true
	return info, nil
}

// capturedError lifts a structured *errors.Error into the report; plain
// errors degrade to the base resource code.
func capturedError(err error) *OperationError {
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		return &OperationError{
			Message:    structured.Message,
			Code:       structured.Code,
			StatusCode: structured.StatusCode,
			Details:    structured.Details,
		}
	}
	return &OperationError{
		Message:    err.Error(),
		Code:       "DS_RESOURCE_ERROR",
		StatusCode: 500,
	}
}

// Descriptor returns the codec descriptor of the report error record
func (e *OperationError) Descriptor() *codec.RecordDescriptor {
	return operationErrorDesc
}

// Descriptor returns the codec descriptor of the report record
func (i *OperationInfo) Descriptor() *codec.RecordDescriptor {
	return operationInfoDesc
}

const reportModule = "resourcekit.resource"

var operationErrorDesc = codec.MustRegister(codec.NewRecord("OperationError").
	Module(reportModule).
	New(func() codec.Record { return &OperationError{} }).
	Field(codec.FieldDescriptor{
		Name: "message",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationError).Message },
		Set: func(r codec.Record, v interface{}) error {
			return setString(&r.(*OperationError).Message, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "code",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationError).Code },
		Set: func(r codec.Record, v interface{}) error {
			return setString(&r.(*OperationError).Code, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "status_code",
		Type: codec.Int(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationError).StatusCode },
		Set: func(r codec.Record, v interface{}) error {
			return setInt(&r.(*OperationError).StatusCode, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "details",
		Type: codec.MapOf(codec.Text(), codec.Any()),
		Get:  func(r codec.Record) interface{} { return r.(*OperationError).Details },
		Set: func(r codec.Record, v interface{}) error {
			return setStringMap(&r.(*OperationError).Details, v)
		},
	}).
	Build())

var operationInfoDesc = codec.MustRegister(codec.NewRecord("OperationInfo").
	Module(reportModule).
	New(func() codec.Record { return &OperationInfo{} }).
	Field(codec.FieldDescriptor{
		Name: "method",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).Method },
		Set: func(r codec.Record, v interface{}) error {
			return setString(&r.(*OperationInfo).Method, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "success",
		Type: codec.Bool(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).Success },
		Set: func(r codec.Record, v interface{}) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("expected bool, got %T", v)
			}
			r.(*OperationInfo).Success = b
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "error",
		Type: codec.Optional(codec.RecordOf("OperationError")),
		Get: func(r codec.Record) interface{} {
			if e := r.(*OperationInfo).Error; e != nil {
				return e
			}
			return nil
		},
		Set: func(r codec.Record, v interface{}) error {
			if v == nil {
				r.(*OperationInfo).Error = nil
				return nil
			}
			e, ok := v.(*OperationError)
			if !ok {
				return fmt.Errorf("expected OperationError, got %T", v)
			}
			r.(*OperationInfo).Error = e
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "row_count",
		Type: codec.Int(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).RowCount },
		Set: func(r codec.Record, v interface{}) error {
			return setInt(&r.(*OperationInfo).RowCount, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "started_at",
		Type: codec.Time(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).StartedAt },
		Set: func(r codec.Record, v interface{}) error {
			return setTime(&r.(*OperationInfo).StartedAt, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "ended_at",
		Type: codec.Time(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).EndedAt },
		Set: func(r codec.Record, v interface{}) error {
			return setTime(&r.(*OperationInfo).EndedAt, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "duration_ms",
		Type: codec.Float(),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).DurationMS },
		Set: func(r codec.Record, v interface{}) error {
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("expected float64, got %T", v)
			}
			r.(*OperationInfo).DurationMS = f
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "schema",
		Type: codec.Optional(codec.MapOf(codec.Text(), codec.Any())),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).Schema },
		Set: func(r codec.Record, v interface{}) error {
			return setStringMap(&r.(*OperationInfo).Schema, v)
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "metadata",
		Type: codec.MapOf(codec.Text(), codec.Any()),
		Get:  func(r codec.Record) interface{} { return r.(*OperationInfo).Metadata },
		Set: func(r codec.Record, v interface{}) error {
			return setStringMap(&r.(*OperationInfo).Metadata, v)
		},
	}).
	Build())

func setString(dst *string, v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	*dst = s
	return nil
}

func setInt(dst *int, v interface{}) error {
	n, ok := v.(int)
	if !ok {
		return fmt.Errorf("expected int, got %T", v)
	}
	*dst = n
	return nil
}

func setTime(dst *time.Time, v interface{}) error {
	ts, ok := v.(time.Time)
	if !ok {
		return fmt.Errorf("expected time.Time, got %T", v)
	}
	*dst = ts
	return nil
}

func setStringMap(dst *map[string]interface{}, v interface{}) error {
	if v == nil {
		*dst = nil
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected map, got %T", v)
	}
	*dst = m
	return nil
}
