package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/SebastianScherer88/graphit/pkg/buildinfo"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/observability"
)

// Environment variables read by SetupTracing.
const (
	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders  = "OTEL_EXPORTER_OTLP_HEADERS"
)

// exportTimeout bounds each OTLP export and the final flush.
const exportTimeout = 5 * time.Second

// SetupTracing exports pipeline spans over OTLP/gRPC when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. Without it tracing stays disabled and
// the returned shutdown function does nothing.
func SetupTracing(ctx context.Context, logger *log.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	endpoint := strings.TrimRight(os.Getenv(envOTLPEndpoint), "/")
	if endpoint == "" {
		return noop, nil
	}

	opts := exporterOptions(endpoint, parseHeaders(os.Getenv(envOTLPHeaders)))
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return noop, errors.Wrap(errors.ErrCodeInternal, err, "create OTLP trace exporter")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(appName),
			semconv.ServiceVersionKey.String(buildinfo.Version),
		),
	)
	if err != nil {
		return noop, errors.Wrap(errors.ErrCodeInternal, err, "create trace resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	hooks := observability.NewTracingHooks(tp)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	logger.Debug("tracing enabled", "endpoint", endpoint)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, exportTimeout)
		defer cancel()
		observability.Reset()
		return tp.Shutdown(ctx)
	}, nil
}

// exporterOptions turns an endpoint URL into gRPC exporter options. http://
// selects a plaintext connection; https:// and bare host:port use TLS.
func exporterOptions(endpoint string, headers map[string]string) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithTimeout(exportTimeout),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent(buildinfo.UserAgent())),
	}
	if len(headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(headers))
	}

	hostPort, secure := splitEndpoint(endpoint)
	opts = append(opts, otlptracegrpc.WithEndpoint(hostPort))
	if secure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

// splitEndpoint strips the scheme from endpoint, adding the scheme's
// default port when none is given.
func splitEndpoint(endpoint string) (hostPort string, secure bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		hostPort = strings.TrimPrefix(endpoint, "http://")
		if !strings.Contains(hostPort, ":") {
			hostPort += ":80"
		}
		return hostPort, false
	case strings.HasPrefix(endpoint, "https://"):
		hostPort = strings.TrimPrefix(endpoint, "https://")
		if !strings.Contains(hostPort, ":") {
			hostPort += ":443"
		}
		return hostPort, true
	default:
		return endpoint, true
	}
}

// parseHeaders parses the comma-separated key=value list of
// OTEL_EXPORTER_OTLP_HEADERS. Keys are lower-cased; malformed pairs are
// dropped.
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || !validHeaderKey(k) {
			continue
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers
}

func validHeaderKey(key string) bool {
	for _, c := range key {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}
