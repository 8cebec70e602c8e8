package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/order/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUseCase struct {
	mu     sync.Mutex
	inputs []*dto.DeliveredOrderInput
	roles  []string
	err    error
}

func (r *recordingUseCase) ApplyDeliveredOrder(ctx context.Context, input *dto.DeliveredOrderInput) (*dto.ApplyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, input)
	r.roles = append(r.roles, auth.FromContext(ctx).Role)
	return &dto.ApplyResult{OrderID: input.OrderID}, r.err
}

// queueReader replays fixed messages, then blocks until the context ends.
type queueReader struct {
	msgs chan kafka.Message
}

func (q *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-q.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

const delivered = `{
	"event_id": "evt-1",
	"event_type": "OrderDelivered",
	"payload": {
		"id": "ord-1",
		"merchant_id": "vendor-1",
		"items": [
			{"product_id": "p-1", "quantity": 2, "unit_price": "12.50"},
			{"product_id": "p-2", "quantity": 1, "unit_price": 40}
		]
	},
	"timestamp": "2026-03-01T10:00:00Z"
}`

func TestProcessMessage_Delivered(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewOrderListener(nil, uc, logger.NewNop())

	require.NoError(t, l.processMessage(context.Background(), []byte(delivered)))
	require.Len(t, uc.inputs, 1)

	in := uc.inputs[0]
	assert.Equal(t, "vendor-1", in.VendorID)
	assert.Equal(t, "ord-1", in.OrderID)
	require.Len(t, in.Items, 2)
	assert.Equal(t, int64(2), in.Items[0].Quantity)
	assert.Equal(t, "12.5", in.Items[0].UnitPrice.String())
	assert.Equal(t, "40", in.Items[1].UnitPrice.String())
	assert.Equal(t, auth.RoleSystem, uc.roles[0])
}

func TestProcessMessage_IgnoresOtherEvents(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewOrderListener(nil, uc, logger.NewNop())

	assert.NoError(t, l.processMessage(context.Background(), []byte(`{"event_type":"OrderCreated","payload":{"id":"x"}}`)))
	assert.NoError(t, l.processMessage(context.Background(), []byte(`not json`)))
	assert.Empty(t, uc.inputs)
}

func TestProcessMessage_AlreadyAppliedIsNotAnError(t *testing.T) {
	uc := &recordingUseCase{err: apperr.Wrapf(apperr.ErrAlreadyApplied, "order ord-1")}
	l := NewOrderListener(nil, uc, logger.NewNop())
	assert.NoError(t, l.processMessage(context.Background(), []byte(delivered)))

	uc.err = errors.New("db down")
	assert.Error(t, l.processMessage(context.Background(), []byte(delivered)))
}

func TestStart_ConsumesUntilCancelled(t *testing.T) {
	uc := &recordingUseCase{}
	reader := &queueReader{msgs: make(chan kafka.Message, 2)}
	reader.msgs <- kafka.Message{Value: []byte(delivered)}
	reader.msgs <- kafka.Message{Value: []byte(`{"event_type":"OrderCompleted","payload":{"id":"ord-2","vendor_id":"vendor-2","items":[{"product_id":"p-1","quantity":1,"unit_price":1}]}}`)}

	l := NewOrderListener(reader, uc, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		return len(uc.inputs) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, "vendor-2", uc.inputs[1].VendorID)
}
