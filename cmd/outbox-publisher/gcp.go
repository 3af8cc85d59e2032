package main

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// topicPublisher adapts the Pub/Sub publisher to the narrow interface the
// relay depends on.
type topicPublisher struct {
	pub *gcppubsub.Publisher
}

func wrapPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return topicPublisher{pub: p}
}

func (t topicPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	res := t.pub.Publish(ctx, msg)
	if res == nil {
		return nilResult{}
	}
	return res
}

type nilResult struct{}

func (nilResult) Get(context.Context) (string, error) { return "", errNilPublishResult }
