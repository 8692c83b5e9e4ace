// Package metrics defines Prometheus metrics for grade notification runs,
// covering loaded result rows and mail delivery, and exports them in the
// node exporter textfile format at the end of a batch.
package metrics
