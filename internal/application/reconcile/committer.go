package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

// maxRequestNumberAttempts covers the verbatim number plus suffixes -01 to -99
const maxRequestNumberAttempts = 100

// servePlan describes the serve batch to create once item ids are known
type servePlan struct {
	ServedBy int64
	ServedAt time.Time
}

// postingPlan describes the posting record to create. An empty Reference falls
// back to the allocated request number.
type postingPlan struct {
	Reference string
	PostedBy  int64
	PostedAt  time.Time
}

// commitPlan is everything created for one legacy row
type commitPlan struct {
	Request *entity.MaterialRequest
	Serve   *servePlan
	Posting *postingPlan
}

func (p *commitPlan) counts() EntityCounts {
	c := EntityCounts{
		Requests:      1,
		ApprovalSteps: len(p.Request.Steps),
		Items:         len(p.Request.Items),
	}
	if p.Serve != nil {
		c.ServeBatches = 1
	}
	if p.Posting != nil {
		c.PostingRecords = 1
	}
	return c
}

// committer writes one row's entities in a single transaction, retrying the whole
// unit of work on transient store errors
type committer struct {
	requests    port.RequestRepository
	txManager   port.TransactionManager
	maxAttempts int
	isTransient func(error) bool
	logger      *zap.Logger
}

func newCommitter(
	requests port.RequestRepository,
	txManager port.TransactionManager,
	maxAttempts int,
	isTransient func(error) bool,
	logger *zap.Logger,
) *committer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if isTransient == nil {
		isTransient = func(error) bool { return false }
	}
	return &committer{
		requests:    requests,
		txManager:   txManager,
		maxAttempts: maxAttempts,
		isTransient: isTransient,
		logger:      logger,
	}
}

// Commit persists the plan and returns the created entity counts
func (c *committer) Commit(ctx context.Context, plan *commitPlan) (EntityCounts, error) {
	preferred := plan.Request.RequestNumber
	attempt := 0

	operation := func() error {
		attempt++
		resetIDs(plan.Request)
		plan.Request.RequestNumber = preferred

		err := c.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			return c.write(txCtx, plan)
		})
		if err == nil {
			return nil
		}
		if c.isTransient(err) {
			c.logger.Warn("Transient store error, retrying row",
				zap.String("legacy_record_id", plan.Request.LegacyRecordID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return EntityCounts{}, err
	}
	return plan.counts(), nil
}

func (c *committer) write(ctx context.Context, plan *commitPlan) error {
	req := plan.Request

	number, err := c.allocateRequestNumber(ctx, req.CompanyID, req.RequestNumber)
	if err != nil {
		return err
	}
	req.RequestNumber = number

	if err := c.requests.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if plan.Serve != nil {
		batch := &entity.ServeBatch{
			RequestID: req.ID,
			BatchNo:   uuid.NewString(),
			ServedBy:  plan.Serve.ServedBy,
			ServedAt:  plan.Serve.ServedAt,
			IsFinal:   fullyServed(req.Items),
		}
		for _, item := range req.Items {
			if item.ServedQuantity.GreaterThan(quantityTolerance) {
				batch.Items = append(batch.Items, &entity.ServeBatchItem{
					RequestItemID:  item.ID,
					ServedQuantity: item.ServedQuantity,
				})
			}
		}
		if err := c.requests.CreateServeBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to create serve batch: %w", err)
		}
	}

	if plan.Posting != nil {
		ref := plan.Posting.Reference
		if ref == "" {
			ref = req.RequestNumber
		}
		record := &entity.PostingRecord{
			RequestID: req.ID,
			Reference: ref,
			PostedBy:  plan.Posting.PostedBy,
			PostedAt:  plan.Posting.PostedAt,
		}
		if err := c.requests.CreatePostingRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to create posting record: %w", err)
		}
	}

	return nil
}

// allocateRequestNumber returns preferred if free, else the first free
// preferred-NN suffix
func (c *committer) allocateRequestNumber(ctx context.Context, companyID int64, preferred string) (string, error) {
	for i := 0; i < maxRequestNumberAttempts; i++ {
		candidate := preferred
		if i > 0 {
			candidate = fmt.Sprintf("%s-%02d", preferred, i)
		}
		exists, err := c.requests.RequestNumberExists(ctx, companyID, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check request number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrRequestNumberExhausted, preferred)
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	return b
}

func resetIDs(req *entity.MaterialRequest) {
	req.ID = 0
	for _, s := range req.Steps {
		s.ID = 0
		s.RequestID = 0
	}
	for _, item := range req.Items {
		item.ID = 0
		item.RequestID = 0
	}
}
