// Package namespace adds and removes the tenant prefix that a client
// namespace puts in front of topic and group names.
package namespace

import "strings"

const (
	Separator   = "%"
	RetryPrefix = "%RETRY%"
	DLQPrefix   = "%DLQ%"

	sysTopicPrefix = "rmq_sys_"
)

var systemTopics = map[string]struct{}{
	"TBW102":                      {},
	"BenchmarkTest":               {},
	"SCHEDULE_TOPIC_XXXX":         {},
	"OFFSET_MOVED_EVENT":          {},
	"SELF_TEST_TOPIC":             {},
	"RMQ_SYS_TRANS_HALF_TOPIC":    {},
	"RMQ_SYS_TRANS_OP_HALF_TOPIC": {},
	"RMQ_SYS_TRACE_TOPIC":         {},
	"TRANS_CHECK_MAX_TIME_TOPIC":  {},
}

func IsRetryTopic(resource string) bool {
	return strings.HasPrefix(resource, RetryPrefix)
}

func IsDLQTopic(resource string) bool {
	return strings.HasPrefix(resource, DLQPrefix)
}

func IsSystemResource(resource string) bool {
	if _, ok := systemTopics[resource]; ok {
		return true
	}
	return strings.HasPrefix(resource, sysTopicPrefix)
}

// WithoutNamespace strips ns from resource when resource actually carries it.
// Retry and DLQ prefixes are kept in front of the stripped name.
func WithoutNamespace(resource, ns string) string {
	if resource == "" || ns == "" || IsSystemResource(resource) {
		return resource
	}

	prefix, rest := splitRetryDLQ(resource)
	if !strings.HasPrefix(rest, ns+Separator) {
		return resource
	}
	return prefix + rest[len(ns)+len(Separator):]
}

// WrapNamespace puts ns in front of resource, after any retry or DLQ prefix.
func WrapNamespace(resource, ns string) string {
	if resource == "" || ns == "" || IsSystemResource(resource) {
		return resource
	}

	prefix, rest := splitRetryDLQ(resource)
	if strings.HasPrefix(rest, ns+Separator) {
		return resource
	}
	return prefix + ns + Separator + rest
}

func splitRetryDLQ(resource string) (prefix, rest string) {
	rest = resource
	if IsRetryTopic(rest) {
		prefix += RetryPrefix
		rest = rest[len(RetryPrefix):]
	}
	if IsDLQTopic(rest) {
		prefix += DLQPrefix
		rest = rest[len(DLQPrefix):]
	}
	return prefix, rest
}
