package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

type fakeSNSClient struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSQSNotifierSendsEventPayload(t *testing.T) {
	client := &fakeSQSClient{}
	n := &sqsNotifier{
		id:       "ops-queue",
		typ:      TypeSQS,
		queueURL: "https://sqs/popups",
		client:   client,
		log:      ensureLogger(nil),
	}

	evt := Event{Fingerprint: "f1", ContentID: 42, Name: "무신사 성수 팝업"}
	if err := n.Notify(context.Background(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 send, got %d", len(client.inputs))
	}
	input := client.inputs[0]
	if *input.QueueUrl != "https://sqs/popups" {
		t.Fatalf("unexpected queue url %q", *input.QueueUrl)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(*input.MessageBody), &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Fingerprint != "f1" || decoded.ContentID != 42 {
		t.Fatalf("unexpected payload %+v", decoded)
	}

	attr, ok := input.MessageAttributes["fingerprint"]
	if !ok || *attr.StringValue != "f1" {
		t.Fatalf("fingerprint attribute missing or wrong: %+v", input.MessageAttributes)
	}
}

func TestSQSNotifierWrapsSendErrors(t *testing.T) {
	n := &sqsNotifier{
		id:       "ops-queue",
		typ:      TypeSQS,
		queueURL: "https://sqs/popups",
		client:   &fakeSQSClient{err: errors.New("throttled")},
		log:      ensureLogger(nil),
	}
	if err := n.Notify(context.Background(), Event{Fingerprint: "f1"}); err == nil {
		t.Fatalf("expected send error to surface")
	}
}

func TestSNSNotifierPublishesEventPayload(t *testing.T) {
	client := &fakeSNSClient{}
	n := &snsNotifier{
		id:       "broadcast",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:ap-northeast-2:1:popups",
		client:   client,
		log:      ensureLogger(nil),
	}

	if err := n.Notify(context.Background(), Event{Fingerprint: "f2", Name: "x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(client.inputs))
	}
	input := client.inputs[0]
	if *input.TopicArn != "arn:aws:sns:ap-northeast-2:1:popups" {
		t.Fatalf("unexpected topic %q", *input.TopicArn)
	}
	attr, ok := input.MessageAttributes["fingerprint"]
	if !ok || *attr.StringValue != "f2" {
		t.Fatalf("fingerprint attribute missing or wrong")
	}
}
