package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/version"
)

// ProviderSet 提供 TracerProvider
var ProviderSet = wire.NewSet(ProvideTracerProvider)

type Conf struct {
	// Enabled 是否上报 trace
	Enabled bool `mapstructure:"enabled"`
	// Endpoint OTLP 端点地址（如：localhost:4318 或 localhost:4317）
	Endpoint string `mapstructure:"endpoint"`
	// Protocol 协议类型：grpc 或 http
	Protocol string `mapstructure:"protocol"`
	// ServiceName 服务名称
	ServiceName string `mapstructure:"serviceName"`
	// Insecure 是否跳过 TLS
	Insecure bool `mapstructure:"insecure"`
	// Headers 额外的 HTTP 头（仅用于 HTTP 协议）
	Headers map[string]string `mapstructure:"headers"`
	// ExportTimeout 导出超时时间（秒）
	ExportTimeout int `mapstructure:"exportTimeout"`
}

func (c *Conf) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "huddle"
	}
	if c.Protocol == "" {
		c.Protocol = "grpc"
	}
	if c.ExportTimeout == 0 {
		c.ExportTimeout = 10
	}
	if c.Endpoint == "" {
		if c.Protocol == "grpc" {
			c.Endpoint = "localhost:4317"
		} else {
			c.Endpoint = "localhost:4318"
		}
	}
}

// ProvideTracerProvider installs the global tracer provider.
// When tracing is disabled spans are still created, so log lines carry trace ids,
// but nothing is exported.
func ProvideTracerProvider(conf Conf) (*sdktrace.TracerProvider, func(), error) {
	conf.SetDefaults()
	ctx := context.Background()

	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}
	if conf.Enabled {
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(conf.ServiceName),
				semconv.ServiceVersionKey.String(version.Version),
			),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create resource: %w", err)
		}
		exporter, err := createExporter(ctx, conf)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithResource(res), sdktrace.WithBatcher(exporter,
			sdktrace.WithExportTimeout(time.Duration(conf.ExportTimeout)*time.Second),
		))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(conf.ExportTimeout+5)*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warnw("failed to shutdown TracerProvider", "error", err)
		}
	}

	log.Infow("tracer provider initialized", "export", conf.Enabled, "protocol", conf.Protocol, "endpoint", conf.Endpoint)
	return tp, cleanup, nil
}

func createExporter(ctx context.Context, conf Conf) (sdktrace.SpanExporter, error) {
	timeout := time.Duration(conf.ExportTimeout) * time.Second
	switch conf.Protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(conf.Endpoint), otlptracegrpc.WithTimeout(timeout)}
		if conf.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(conf.Endpoint), otlptracehttp.WithTimeout(timeout)}
		if conf.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(conf.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(conf.Headers))
		}
		return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", conf.Protocol)
	}
}
