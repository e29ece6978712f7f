package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/lmittmann/tint"
)

// SQSConfig maps bus subjects onto SQS queue URLs.
type SQSConfig struct {
	Region          string
	QueueURLs       map[string]string
	WaitTimeSeconds int32
}

type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQS struct {
	client sqsAPI
	queues map[string]string
	wait   int32
	log    *slog.Logger
	wg     sync.WaitGroup
}

var _ Bus = (*SQS)(nil)

func NewSQS(ctx context.Context, cfg SQSConfig, log *slog.Logger) (*SQS, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load SDK config: %w", ErrUnreachable, err)
	}
	return newSQS(sqs.NewFromConfig(awsCfg), cfg, log), nil
}

func newSQS(client sqsAPI, cfg SQSConfig, log *slog.Logger) *SQS {
	wait := cfg.WaitTimeSeconds
	if wait <= 0 {
		wait = 5
	}
	return &SQS{
		client: client,
		queues: cfg.QueueURLs,
		wait:   wait,
		log:    log,
	}
}

func (s *SQS) queueURL(subject string) (string, error) {
	url, ok := s.queues[subject]
	if !ok || url == "" {
		return "", fmt.Errorf("%w: %s", ErrNoQueue, subject)
	}
	return url, nil
}

func (s *SQS) Publish(ctx context.Context, subject string, data []byte) error {
	url, err := s.queueURL(subject)
	if err != nil {
		return err
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", subject, err)
	}
	return nil
}

// Subscribe long-polls the subject's queue. A message is deleted from the
// queue once it has been handed to the consumer.
func (s *SQS) Subscribe(ctx context.Context, subject string) (Subscription, error) {
	url, err := s.queueURL(subject)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &sqsSubscription{out: make(chan []byte), cancel: cancel, stopped: make(chan struct{})}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(sub.stopped)
		s.poll(ctx, url, sub.out)
	}()
	s.log.Info("subscribed", "subject", subject, "queue", url)
	return sub, nil
}

func (s *SQS) poll(ctx context.Context, url string, out chan<- []byte) {
	for ctx.Err() == nil {
		output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(url),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     s.wait,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("failed to receive messages", "queue", url, tint.Err(err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, m := range output.Messages {
			select {
			case out <- []byte(aws.ToString(m.Body)):
			case <-ctx.Done():
				return
			}
			_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(url),
				ReceiptHandle: m.ReceiptHandle,
			})
			if err != nil {
				s.log.Error("failed to delete message", "queue", url, tint.Err(err))
			}
		}
	}
}

// Drain waits for every polling goroutine to stop. Polling stops when the
// subscription's context is cancelled.
func (s *SQS) Drain() error {
	s.wg.Wait()
	return nil
}

type sqsSubscription struct {
	out     chan []byte
	cancel  context.CancelFunc
	stopped chan struct{}
}

func (s *sqsSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *sqsSubscription) Unsubscribe() error {
	s.cancel()
	<-s.stopped
	return nil
}
