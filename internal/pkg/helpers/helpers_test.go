package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithParam(name, value string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: name, Value: value}}
	return c
}

func TestParseIDParam(t *testing.T) {
	id, err := ParseIDParam(contextWithParam("profileId", "42"), "profileId")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := ParseIDParam(contextWithParam("profileId", bad), "profileId")
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, bad)
	}
}

func TestParseUUIDParam(t *testing.T) {
	want := uuid.New()
	got, err := ParseUUIDParam(contextWithParam("docId", want.String()), "docId")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseUUIDParam(contextWithParam("docId", "nope"), "docId")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestParseLifetime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{" 7d ", 7 * 24 * time.Hour},
		{"3600", time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseLifetime(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "soon", "0", "-1h", "xd", "0d"} {
		_, err := ParseLifetime(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDurationFallsBack(t *testing.T) {
	assert.Equal(t, 48*time.Hour, ParseDuration("2d", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
}
