package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSentry_EmptyDSNIsNoop(t *testing.T) {
	flush, err := InitSentry("", "dev", "test")
	require.NoError(t, err)
	require.NotNil(t, flush)
	flush()
}

func TestInitSentry_BadDSN(t *testing.T) {
	flush, err := InitSentry("not a dsn", "dev", "test")
	assert.Error(t, err)
	flush()
}

func TestCaptureErr_WithoutClient(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureErr(context.Background(), errors.New("boom"), map[string]string{"route": "/x"})
		CaptureErr(context.Background(), nil, nil)
	})
}
