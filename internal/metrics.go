package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Metric_PipelineRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_runs",
		Help: "Pipeline executions started, including backoff retries",
	})
	Metric_PipelineFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_failures",
		Help: "Pipeline executions that ended in an error",
	})
	Metric_PipelineRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_retries",
		Help: "Pipeline executions retried by the backoff wrapper",
	})
	Metric_CertIssues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cert_issues",
		Help: "Full certificate issuance runs (first issue or domain set change)",
	})
	Metric_CertRenewals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cert_renewals",
		Help: "Certificate renewal runs, including not-yet-due no-ops",
	})
	Metric_IssuanceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "issuance_failures",
		Help: "Nonzero exits from the certificate-issuing program",
	})
	Metric_PublishSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "publish_skipped",
		Help: "Publish calls skipped because the deployed certificate was identical",
	})
	Metric_PublishSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "publish_submitted",
		Help: "Load-balancer app updates submitted to the platform",
	})
	Metric_DeploymentTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deployment_timeouts",
		Help: "Deployments still in flight when the wait ceiling elapsed",
	})
)
