package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_ChildrenShareRecord(t *testing.T) {
	logger := testutil.NewMockLogger()

	child := logger.Named("filter").With(logging.TemplateID("t-1"))
	child.Warn("bad filter spec detected", logging.String("key", "Foo"))

	warns := logger.MessagesAt("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "filter", warns[0].Logger)
	v, ok := warns[0].Field("template_id")
	assert.True(t, ok)
	assert.Equal(t, "t-1", v)
	v, ok = warns[0].Field("key")
	assert.True(t, ok)
	assert.Equal(t, "Foo", v)
}

func TestMockLogger_WithContextAndError(t *testing.T) {
	logger := testutil.NewMockLogger()

	ctx := logging.ContextWithRequestID(context.Background(), "req-9")
	logger.WithContext(ctx).WithError(errors.New("boom")).Error("failed")

	msgs := logger.MessagesAt("error")
	require.Len(t, msgs, 1)
	v, ok := msgs[0].Field("request_id")
	assert.True(t, ok)
	assert.Equal(t, "req-9", v)
	_, ok = msgs[0].Field("error")
	assert.True(t, ok)
}

//Personal.AI order the ending
