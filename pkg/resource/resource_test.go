package resource_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
	"github.com/ajitpratap0/resourcekit/pkg/errors"
	"github.com/ajitpratap0/resourcekit/pkg/resource"
)

func TestKeyString(t *testing.T) {
	key := resource.Key{Kind: "NS.DATASET.HTTP", Version: "1.0.0"}
	assert.Equal(t, "NS.DATASET.HTTP:v1.0.0", key.String())
}

func TestDescriptorKey(t *testing.T) {
	desc := resource.Descriptor{
		Kind:      "NS.DATASET.HTTP",
		Name:      "http",
		ClassName: "pkg.http.HttpDataset",
		Version:   "1.0.0",
	}
	assert.Equal(t, resource.Key{Kind: "NS.DATASET.HTTP", Version: "1.0.0"}, desc.Key())
	assert.Equal(t, "NS.DATASET.HTTP:v1.0.0", desc.String())
}

func TestDatasetMethodEnum(t *testing.T) {
	methods := resource.DatasetMethods()
	assert.Len(t, methods, 8)
	assert.Equal(t, resource.DatasetCreate, methods[0])
	assert.Equal(t, resource.DatasetRename, methods[len(methods)-1])

	for _, m := range methods {
		assert.True(t, resource.DatasetMethodEnum.Contains(m.EnumValue()), m)
	}
	assert.False(t, resource.DatasetMethodEnum.Contains("truncate"))
	assert.Equal(t, resource.DatasetPurge, resource.DatasetMethodEnum.Make("purge"))
}

func TestLinkedServiceMethodEnum(t *testing.T) {
	assert.Len(t, resource.LinkedServiceMethods(), 2)
	assert.True(t, resource.LinkedServiceMethodEnum.Contains("connect"))
	assert.True(t, resource.LinkedServiceMethodEnum.Contains("test_connection"))
	assert.False(t, resource.LinkedServiceMethodEnum.Contains("disconnect"))
}

func TestTrackSuccess(t *testing.T) {
	info, err := resource.Track(context.Background(), "read", func(ctx context.Context, info *resource.OperationInfo) error {
		info.RowCount = 12
		info.Metadata["source"] = "unit"
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "read", info.Method)
	assert.True(t, info.Success)
	assert.Nil(t, info.Error)
	assert.Equal(t, 12, info.RowCount)
	assert.Equal(t, "unit", info.Metadata["source"])
	assert.False(t, info.StartedAt.IsZero())
	assert.False(t, info.EndedAt.Before(info.StartedAt))
	assert.GreaterOrEqual(t, info.DurationMS, 0.0)
}

func TestTrackCapturesStructuredError(t *testing.T) {
	opErr := errors.NewNotSupported("purge is not available").
		WithDetail("method", "purge")

	info, err := resource.Track(context.Background(), "purge", func(ctx context.Context, info *resource.OperationInfo) error {
		return opErr
	})

	// The operation's error is surfaced, never swallowed
	require.Error(t, err)
	assert.Same(t, error(opErr), err)

	assert.False(t, info.Success)
	require.NotNil(t, info.Error)
	assert.Equal(t, "purge is not available", info.Error.Message)
	assert.Equal(t, "DS_RESOURCE_NOT_SUPPORTED_ERROR", info.Error.Code)
	assert.Equal(t, 501, info.Error.StatusCode)
	assert.Equal(t, "purge", info.Error.Details["method"])
}

func TestTrackCapturesPlainError(t *testing.T) {
	info, err := resource.Track(context.Background(), "create", func(ctx context.Context, info *resource.OperationInfo) error {
		return fmt.Errorf("connection reset")
	})

	require.Error(t, err)
	require.NotNil(t, info.Error)
	assert.Equal(t, "connection reset", info.Error.Message)
	assert.Equal(t, "DS_RESOURCE_ERROR", info.Error.Code)
	assert.Equal(t, 500, info.Error.StatusCode)
}

func TestTrackTimesTheOperation(t *testing.T) {
	info, err := resource.Track(context.Background(), "read", func(ctx context.Context, info *resource.OperationInfo) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.DurationMS, 4.0)
}

func TestTrackReportsFreshPerInvocation(t *testing.T) {
	first, _ := resource.Track(context.Background(), "read", func(ctx context.Context, info *resource.OperationInfo) error {
		return nil
	})
	second, _ := resource.Track(context.Background(), "read", func(ctx context.Context, info *resource.OperationInfo) error {
		return fmt.Errorf("fail")
	})

	assert.NotSame(t, first, second)
	assert.True(t, first.Success)
	assert.False(t, second.Success)
	assert.Nil(t, first.Error)
}

func TestOperationInfoCodecRoundTrip(t *testing.T) {
	engine := codec.NewEngine(nil)

	original := &resource.OperationInfo{
		Method:  "upsert",
		Success: false,
		Error: &resource.OperationError{
			Message:    "backend rejected batch",
			Code:       "DS_RESOURCE_ERROR",
			StatusCode: 500,
			Details:    map[string]interface{}{"batch": 4},
		},
		RowCount:   250,
		StartedAt:  time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		EndedAt:    time.Date(2024, 6, 1, 12, 30, 2, 0, time.UTC),
		DurationMS: 2000.0,
		Metadata:   map[string]interface{}{"attempt": 1},
	}

	wire := engine.Serialize(original)
	payload, ok := wire.(map[string]interface{})
	require.True(t, ok)

	restored, err := engine.Deserialize(original.Descriptor(), payload)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestOperationInfoJSON(t *testing.T) {
	info, err := resource.Track(context.Background(), "list", func(ctx context.Context, info *resource.OperationInfo) error {
		info.RowCount = 3
		return nil
	})
	require.NoError(t, err)

	data, err := info.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method":"list"`)
	assert.Contains(t, string(data), `"row_count":3`)
	assert.NotContains(t, string(data), `"error"`)
}
