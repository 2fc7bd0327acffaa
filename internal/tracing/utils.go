package tracing

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"

	"github.com/mailforge/mailsync/internal/logger"
)

const (
	SpanTagMailboxId = "mailbox-id"
	SpanTagFolder    = "folder"
	SpanTagComponent = "component"
)

const (
	SpanTagComponentPostgresRepository = "postgresRepository"
	SpanTagComponentRest               = "rest"
	SpanTagComponentCronJob            = "cronJob"
	SpanTagComponentService            = "service"
)

func StartHttpServerTracerSpanWithHeader(ctx context.Context, operationName string, headers http.Header) (context.Context, opentracing.Span) {
	spanCtx, err := opentracing.GlobalTracer().Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(headers))
	if err != nil {
		serverSpan := opentracing.GlobalTracer().StartSpan(operationName)
		opentracing.GlobalTracer().Inject(serverSpan.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(headers))
		return opentracing.ContextWithSpan(ctx, serverSpan), serverSpan
	}

	serverSpan := opentracing.GlobalTracer().StartSpan(operationName, ext.RPCServerOption(spanCtx))
	return opentracing.ContextWithSpan(ctx, serverSpan), serverSpan
}

func StartTracerSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	serverSpan := opentracing.GlobalTracer().StartSpan(operationName)
	return serverSpan, opentracing.ContextWithSpan(ctx, serverSpan)
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if err == nil || span == nil {
		return
	}

	ext.LogError(span, err, fields...)
}

func TagComponentPostgresRepository(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentPostgresRepository)
}

func TagComponentRest(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentRest)
}

func TagComponentCronJob(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentCronJob)
}

func SetDefaultServiceSpanTags(_ context.Context, span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentService)
}

func TagMailbox(span opentracing.Span, mailboxID string) {
	if mailboxID != "" {
		span.SetTag(SpanTagMailboxId, mailboxID)
	}
}

func TagFolder(span opentracing.Span, folder string) {
	if folder != "" {
		span.SetTag(SpanTagFolder, folder)
	}
}

// RecoveryWithJaeger is gin middleware that reports panics to the tracer
// before letting the request fail with a 500.
func RecoveryWithJaeger(tracer opentracing.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				span := tracer.StartSpan(fmt.Sprintf("panic.%s", c.FullPath()))
				defer span.Finish()

				ext.Error.Set(span, true)
				span.LogKV(
					"event", "panic",
					"error", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)

				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// RecoverAndLogToJaeger is a deferred helper for goroutines and cron jobs.
func RecoverAndLogToJaeger(l logger.Logger) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan("panic.recovered")
		defer span.Finish()

		ext.Error.Set(span, true)
		span.LogKV(
			"event", "panic",
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		l.Errorf("recovered from panic: %v", r)
	}
}
