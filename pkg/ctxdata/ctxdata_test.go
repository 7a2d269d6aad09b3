package ctxdata_test

import (
	"context"
	"testing"

	"edupro/pkg/ctxdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPrincipal(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		id := uuid.New()
		ctx := ctxdata.WithPrincipal(context.Background(), ctxdata.Principal{UserID: id, Role: "student"})

		got, ok := ctxdata.GetUserID(ctx)
		assert.True(t, ok)
		assert.Equal(t, id, got)

		role, ok := ctxdata.GetUserRole(ctx)
		assert.True(t, ok)
		assert.Equal(t, "student", role)
	})

	t.Run("Missing", func(t *testing.T) {
		_, ok := ctxdata.GetUserID(context.Background())
		assert.False(t, ok)
	})

	t.Run("NilUserIsAnonymous", func(t *testing.T) {
		ctx := ctxdata.WithPrincipal(context.Background(), ctxdata.Principal{Role: "student"})
		_, ok := ctxdata.GetPrincipal(ctx)
		assert.False(t, ok)
	})
}

func TestTraceID(t *testing.T) {
	ctx := ctxdata.WithTraceID(context.Background(), "abc")
	got, ok := ctxdata.GetTraceID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", got)
}
