package namespace_test

import (
	"testing"

	"github.com/fujin-io/rocketmq-go/namespace"
	"github.com/stretchr/testify/assert"
)

func TestWithoutNamespace(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		ns       string
		want     string
	}{
		{"plain", "NS%TopicA", "NS", "TopicA"},
		{"no namespace configured", "NS%TopicA", "", "NS%TopicA"},
		{"other namespace", "OTHER%TopicA", "NS", "OTHER%TopicA"},
		{"not qualified", "TopicA", "NS", "TopicA"},
		{"retry", "%RETRY%NS%GroupA", "NS", "%RETRY%GroupA"},
		{"dlq", "%DLQ%NS%GroupA", "NS", "%DLQ%GroupA"},
		{"system topic", "TBW102", "NS", "TBW102"},
		{"system prefix", "rmq_sys_wheel", "NS", "rmq_sys_wheel"},
		{"empty resource", "", "NS", ""},
		{"prefix without separator", "NSTopicA", "NS", "NSTopicA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, namespace.WithoutNamespace(tt.resource, tt.ns))
		})
	}
}

func TestWrapNamespace(t *testing.T) {
	assert.Equal(t, "NS%TopicA", namespace.WrapNamespace("TopicA", "NS"))
	assert.Equal(t, "NS%TopicA", namespace.WrapNamespace("NS%TopicA", "NS"))
	assert.Equal(t, "%RETRY%NS%GroupA", namespace.WrapNamespace("%RETRY%GroupA", "NS"))
	assert.Equal(t, "TopicA", namespace.WrapNamespace("TopicA", ""))
	assert.Equal(t, "SCHEDULE_TOPIC_XXXX", namespace.WrapNamespace("SCHEDULE_TOPIC_XXXX", "NS"))

	for _, r := range []string{"TopicA", "%RETRY%GroupA", "%DLQ%GroupA"} {
		assert.Equal(t, r, namespace.WithoutNamespace(namespace.WrapNamespace(r, "NS"), "NS"))
	}
}
