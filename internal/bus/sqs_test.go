package bus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu      sync.Mutex
	queues  map[string][]string
	deleted []string
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := aws.ToString(in.QueueUrl)
	f.queues[url] = append(f.queues[url], aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	url := aws.ToString(in.QueueUrl)
	bodies := f.queues[url]
	f.queues[url] = nil
	f.mu.Unlock()

	if len(bodies) == 0 {
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := &sqs.ReceiveMessageOutput{}
	for _, body := range bodies {
		out.Messages = append(out.Messages, types.Message{
			Body:          aws.String(body),
			ReceiptHandle: aws.String("rh-" + body),
		})
	}
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSPublishAndSubscribe(t *testing.T) {
	fake := &fakeSQS{queues: make(map[string][]string)}
	b := newSQS(fake, SQSConfig{QueueURLs: map[string]string{
		"submission.executed": "https://sqs.eu-central-1.amazonaws.com/1/results",
	}}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := b.Subscribe(ctx, "submission.executed")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "submission.executed", []byte(`{"a":1}`)))

	select {
	case data := <-sub.Messages():
		require.Equal(t, `{"a":1}`, string(data))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, b.Drain())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Equal(t, []string{`rh-{"a":1}`}, fake.deleted)
}

func TestSQSUnknownSubject(t *testing.T) {
	b := newSQS(&fakeSQS{queues: map[string][]string{}}, SQSConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := b.Publish(context.Background(), "submission.created", []byte("x"))
	require.ErrorIs(t, err, ErrNoQueue)

	_, err = b.Subscribe(context.Background(), "submission.created")
	require.ErrorIs(t, err, ErrNoQueue)
}
