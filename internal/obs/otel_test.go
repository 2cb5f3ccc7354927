package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/pribylovaa/go-diary-auth/internal/config"
)

func TestSetupOTel_Disabled(t *testing.T) {
	o, err := SetupOTel(context.Background(), config.TracingConfig{Enable: false})
	require.NoError(t, err)
	require.Nil(t, o.TracerProvider)
	require.NoError(t, o.Shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	require.Contains(t, fields, "traceparent")
	require.Contains(t, fields, "baggage")
}

func TestSetupOTel_Enabled(t *testing.T) {
	// Экспортёр gRPC подключается лениво, поэтому коллектор не нужен.
	o, err := SetupOTel(context.Background(), config.TracingConfig{
		Enable:      true,
		Endpoint:    "127.0.0.1:4317",
		ServiceName: "diary-auth-test",
		SampleRatio: "1",
	})
	require.NoError(t, err)
	require.NotNil(t, o.TracerProvider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = o.Shutdown(ctx)
}

func TestSetupOTel_BadRatio(t *testing.T) {
	_, err := SetupOTel(context.Background(), config.TracingConfig{Enable: true, SampleRatio: "1.5"})
	require.Error(t, err)
}
