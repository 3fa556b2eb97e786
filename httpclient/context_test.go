/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestNameContext(t *testing.T) {
	t.Run("empty request name", func(t *testing.T) {
		require.Equal(t, "", GetRequestNameFromContext(context.Background()))
	})

	t.Run("non empty request name", func(t *testing.T) {
		const name = "load-items"
		ctx := NewContextWithRequestName(context.Background(), name)
		require.Equal(t, name, GetRequestNameFromContext(ctx))
	})
}

func TestNotBusyContext(t *testing.T) {
	require.False(t, GetNotBusyFromContext(context.Background()))
	require.True(t, GetNotBusyFromContext(NewContextWithNotBusy(context.Background(), true)))
	require.False(t, GetNotBusyFromContext(NewContextWithNotBusy(context.Background(), false)))
}
