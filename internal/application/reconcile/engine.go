package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

// Config holds engine-level settings that do not change between runs
type Config struct {
	SourceSystem    string
	StageDropPolicy StageDropPolicy
	// CommitAttempts is the total number of tries for one row's transaction
	CommitAttempts int
	// IsTransient reports store errors worth retrying
	IsTransient func(error) bool
}

// Engine imports legacy workflow rows into canonical requests
type Engine struct {
	fetcher   port.LegacyFetcher
	directory port.DirectoryRepository
	requests  port.RequestRepository
	committer *committer
	config    Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates a new Engine
func NewEngine(
	fetcher port.LegacyFetcher,
	directory port.DirectoryRepository,
	requests port.RequestRepository,
	txManager port.TransactionManager,
	config Config,
	logger *zap.Logger,
) *Engine {
	if config.SourceSystem == "" {
		config.SourceSystem = entity.SourceSystemLegacyMRS
	}
	if config.StageDropPolicy == "" {
		config.StageDropPolicy = StageDropPolicyDrop
	}
	if config.CommitAttempts < 1 {
		config.CommitAttempts = 3
	}
	return &Engine{
		fetcher:   fetcher,
		directory: directory,
		requests:  requests,
		committer: newCommitter(requests, txManager, config.CommitAttempts, config.IsTransient, logger),
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// indexes are the per-run directory snapshots
type indexes struct {
	requesters  *RequesterResolver
	approvers   *ApproverResolver
	departments *DepartmentResolver
}

// run carries the state of one Run call
type run struct {
	input     RunInput
	overrides Overrides
	idx       *indexes
	stages    *stageReconstructor
	existing  map[string]bool
	seen      map[string]bool
	result    *Result
	classify  *classifier
}

// Run fetches the legacy rows and reconciles them one at a time. Only invalid
// input, a failed fetch or a failed directory load abort the run; every row
// otherwise ends in exactly one bucket of the result.
func (e *Engine) Run(ctx context.Context, input RunInput) (*Result, error) {
	input = input.withDefaults()
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		CompanyID: input.CompanyID,
		Summary: Summary{
			DryRun:    input.DryRun,
			StartedAt: e.now(),
		},
	}
	logger := e.logger.With(zap.String("run_id", result.RunID), zap.Int64("company_id", input.CompanyID))
	logger.Info("Starting legacy sync run", zap.Bool("dry_run", input.DryRun))

	rows, err := e.fetch(ctx, input)
	if err != nil {
		logger.Error("Failed to fetch legacy rows", zap.Error(err))
		return nil, err
	}
	result.Summary.Fetched = len(rows)

	rows = filterTargets(rows, input.TargetLegacyRecordIDs)
	result.Summary.Targeted = len(rows)

	idx, err := e.buildIndexes(ctx, input.CompanyID)
	if err != nil {
		logger.Error("Failed to load directory", zap.Error(err))
		return nil, err
	}

	existing, err := e.requests.ExistingLegacyIDs(ctx, input.CompanyID, e.config.SourceSystem, collectLegacyIDs(rows))
	if err != nil {
		return nil, fmt.Errorf("failed to check already synced rows: %w", err)
	}

	r := &run{
		input:     input,
		overrides: NewOverrides(input.Overrides),
		idx:       idx,
		stages:    &stageReconstructor{approvers: idx.approvers, policy: e.config.StageDropPolicy},
		existing:  existing,
		seen:      make(map[string]bool, len(rows)),
		result:    result,
		classify:  newClassifier(result, logger),
	}

	queue := newWorkQueue(rows)
	queue.drain(ctx,
		func(ctx context.Context, item *workItem) error {
			return e.processRow(ctx, r, item)
		},
		r.finish,
	)

	result.Summary.FinishedAt = e.now()
	logger.Info("Legacy sync run finished",
		zap.Int("fetched", result.Summary.Fetched),
		zap.Int("processed", result.Summary.Processed),
		zap.Int("skipped", result.Summary.Skipped),
		zap.Int("unmatched", result.Summary.Unmatched),
		zap.Int("errors", result.Summary.Errors))

	return result, nil
}

func (e *Engine) fetch(ctx context.Context, input RunInput) ([]map[string]any, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, input.Timeout)
	defer cancel()

	rows, err := e.fetcher.FetchRows(fetchCtx, port.LegacyFetchRequest{
		BaseURL:       input.BaseURL,
		EndpointPath:  input.EndpointPath,
		CompanyID:     input.CompanyID,
		LegacyScopeID: input.LegacyScopeID,
		BearerToken:   input.BearerToken,
		Timeout:       input.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return rows, nil
}

// buildIndexes loads the three directory snapshots concurrently
func (e *Engine) buildIndexes(ctx context.Context, companyID int64) (*indexes, error) {
	var idx indexes
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		candidates, err := e.directory.ListRequesterCandidates(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to load requester candidates: %w", err)
		}
		idx.requesters = NewRequesterResolver(candidates)
		return nil
	})
	g.Go(func() error {
		accounts, err := e.directory.ListWorkflowAccounts(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to load workflow accounts: %w", err)
		}
		idx.approvers = NewApproverResolver(accounts)
		return nil
	})
	g.Go(func() error {
		departments, err := e.directory.ListActiveDepartments(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to load departments: %w", err)
		}
		idx.departments = NewDepartmentResolver(departments)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &idx, nil
}

// processRow runs every check for one row and commits it unless the run is dry
func (e *Engine) processRow(ctx context.Context, r *run, item *workItem) error {
	legacyID := legacyRecordID(item.Row)
	item.Entry.LegacyRecordID = legacyID
	if legacyID == "" {
		return skipRow(ReasonMissingLegacyRecordID, "row %d has no legacy record id", item.Position)
	}
	if r.seen[legacyID] {
		return skipRow(ReasonDuplicateInBatch, "legacy record %s appears more than once", legacyID)
	}
	r.seen[legacyID] = true
	if r.existing[legacyID] {
		return skipRow(ReasonAlreadySynced, "legacy record %s was imported by an earlier run", legacyID)
	}

	hints := extractHints(item.Row)
	item.Hints = &hints
	item.Entry.OverrideUsed = r.overrides.Apply(&hints)
	item.Entry.LegacyStatus = hints.RawStatus
	item.Entry.RequestNumber = hints.RequestNumber
	if item.Entry.RequestNumber == "" {
		item.Entry.RequestNumber = fallbackRequestNumber(legacyID)
	}

	legacy, status, err := mapStatus(&hints)
	if err != nil {
		return err
	}
	item.Entry.MappedStatus = status

	prepared, found, err := Time(item.Row, pathDatePrepared...)
	if !found || err != nil {
		return skipRow(ReasonInvalidDatePrepared, "prepared date is missing or unreadable")
	}
	required, found, err := Time(item.Row, pathDateRequired...)
	if found && err != nil {
		return skipRow(ReasonInvalidDateRequired, "%v", err)
	}
	if !found {
		required = prepared
	}

	rawItems, _ := List(item.Row, pathItems...)
	items := NormalizeItems(rawItems, legacy.ImpliesFulfillment())
	if len(items) == 0 {
		return skipRow(ReasonNoValidItems, "none of %d legacy items is usable", len(rawItems))
	}

	requester, reason := r.idx.requesters.Resolve(hints.RequesterEmployeeNumber)
	if reason != "" {
		return unmatchedRow(reason, "requester employee number %q", hints.RequesterEmployeeNumber)
	}

	department, err := r.resolveDepartment(&hints, requester)
	if err != nil {
		return err
	}

	rec, err := r.stages.reconstruct(&hints, legacy, status, prepared)
	if err != nil {
		return err
	}
	item.Dropped = rec.Dropped

	var cancelledAt *time.Time
	if t, found, err := Time(item.Row, pathCancelledAt...); found && err == nil {
		cancelledAt = &t
	}
	lc := deriveLifecycle(status, rec.Plan, prepared, cancelledAt)
	totals := ComputeTotals(item.Row, items)

	req := &entity.MaterialRequest{
		CompanyID:           r.input.CompanyID,
		RequestNumber:       item.Entry.RequestNumber,
		Series:              hints.Series,
		Status:              status,
		RequesterEmployeeID: requester.EmployeeID,
		RequesterUserID:     requester.UserID,
		DepartmentID:        department.ID,
		DatePrepared:        prepared,
		DateRequired:        required,
		Freight:             totals.Freight,
		Discount:            totals.Discount,
		Subtotal:            totals.Subtotal,
		GrandTotal:          totals.GrandTotal,
		RequiredSteps:       rec.Plan.RequiredSteps,
		CurrentStep:         rec.Plan.CurrentStep,
		SubmittedAt:         lc.SubmittedAt,
		ApprovedAt:          lc.ApprovedAt,
		RejectedAt:          lc.RejectedAt,
		CancelledAt:         lc.CancelledAt,
		SourceSystem:        e.config.SourceSystem,
		LegacyRecordID:      legacyID,
		SyncRunID:           r.result.RunID,
		CreatedBy:           r.input.ActorUserID,
		Steps:               toSteps(rec.Plan),
		Items:               items,
		CreatedAt:           e.now(),
	}

	plan := &commitPlan{Request: req}
	if anyServed(items) || legacy.ImpliesFulfillment() {
		plan.Serve = &servePlan{
			ServedBy: r.input.ActorUserID,
			ServedAt: firstTime(item.Row, pathServedAt, lc.ApprovedAt, prepared),
		}
	}
	if legacy.ImpliesPosting() {
		ref, _ := String(item.Row, pathPostingRef...)
		plan.Posting = &postingPlan{
			Reference: ref,
			PostedBy:  r.input.ActorUserID,
			PostedAt:  firstTime(item.Row, pathPostedAt, lc.ApprovedAt, prepared),
		}
	}
	req.ProcessingStatus = ProcessingStatus(status, plan.Serve != nil, fullyServed(items))
	req.PostingStatus = PostingStatus(status, legacy)

	if r.input.DryRun {
		item.Counts = plan.counts()
		return nil
	}

	counts, err := e.committer.Commit(ctx, plan)
	if err != nil {
		return err
	}
	item.Counts = counts
	item.Entry.RequestNumber = req.RequestNumber
	item.Entry.RequestID = req.ID
	return nil
}

func (r *run) resolveDepartment(h *rowHints, requester *RequesterMatch) (*entity.Department, error) {
	var (
		dept   *entity.Department
		reason string
	)
	switch {
	case h.DepartmentID != nil:
		dept, reason = r.idx.departments.ResolveByID(*h.DepartmentID)
	case h.DepartmentCode != "" || h.DepartmentName != "":
		dept, reason = r.idx.departments.Resolve(h.DepartmentCode, h.DepartmentName)
	case requester.DepartmentID != nil:
		dept, reason = r.idx.departments.ResolveByID(*requester.DepartmentID)
		if reason != "" {
			reason = ReasonDepartmentNotFound
		}
	default:
		reason = ReasonDepartmentNotFound
	}
	if reason != "" {
		return nil, unmatchedRow(reason, "department code %q name %q", h.DepartmentCode, h.DepartmentName)
	}
	return dept, nil
}

// finish classifies a drained item
func (r *run) finish(item *workItem, err error) {
	entry := item.Entry
	if err == nil {
		for _, d := range item.Dropped {
			d.RequestNumber = entry.RequestNumber
			r.classify.droppedStage(d)
		}
		r.classify.processed(entry, item.Counts)
		return
	}

	var rowErr *rowError
	if errors.As(err, &rowErr) {
		entry.Reason = rowErr.Reason
		entry.Message = rowErr.Message
		if rowErr.Outcome == OutcomeUnmatched {
			entry.Hints = r.hintsFor(item.Hints, rowErr.Reason)
			r.classify.unmatched(entry)
			return
		}
		r.classify.skipped(entry)
		return
	}

	entry.Reason = ReasonUnexpectedError
	if errors.Is(err, ErrRequestNumberExhausted) {
		entry.Reason = ReasonRequestNumberExhausted
	}
	entry.Message = err.Error()
	entry.Hints = r.hintsFor(item.Hints, "")
	r.classify.failed(entry)
}

// hintsFor collects the legacy identities an operator needs to write an override
func (r *run) hintsFor(h *rowHints, reason string) *Hints {
	if h == nil {
		return nil
	}
	out := &Hints{
		RequesterEmployeeNumber: h.RequesterEmployeeNumber,
		RequesterName:           h.RequesterName,
		DepartmentCode:          h.DepartmentCode,
		DepartmentName:          h.DepartmentName,
	}
	for _, stage := range workflow.Stages {
		sh := h.Stages[stage]
		if !sh.hasData() {
			continue
		}
		out.Approvers = append(out.Approvers, StageHint{
			Stage:          stage.Name(),
			EmployeeNumber: sh.EmployeeNumber,
			Name:           sh.Name,
			RawStatus:      sh.RawStatus,
		})
	}
	if strings.HasPrefix(reason, "DEPARTMENT_") || strings.HasPrefix(reason, "AMBIGUOUS_DEPARTMENT_") {
		out.Suggestions = r.idx.departments.Suggest(h.DepartmentCode, h.DepartmentName)
	}
	return out
}

func toSteps(plan workflow.Plan) []*entity.ApprovalStep {
	steps := make([]*entity.ApprovalStep, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		steps = append(steps, &entity.ApprovalStep{
			StepNumber:     s.Number,
			StageName:      s.Stage.Name(),
			ApproverUserID: s.ApproverUserID,
			Status:         s.Status,
			ActedAt:        s.ActedAt,
			ActedBy:        s.ActedBy,
			Remarks:        s.Remarks,
		})
	}
	return steps
}

// firstTime returns the row's date at paths, else the fallback pointer, else def
func firstTime(row Row, paths []string, fallback *time.Time, def time.Time) time.Time {
	if t, found, err := Time(row, paths...); found && err == nil {
		return t
	}
	if fallback != nil {
		return *fallback
	}
	return def
}

// filterTargets keeps only the targeted rows, or all rows when no target is given
func filterTargets(rows []map[string]any, targets []string) []map[string]any {
	if len(targets) == 0 {
		return rows
	}
	want := make(map[string]bool, len(targets))
	for _, t := range targets {
		want[strings.TrimSpace(t)] = true
	}
	out := make([]map[string]any, 0, len(targets))
	for _, row := range rows {
		if want[legacyRecordID(Row(row))] {
			out = append(out, row)
		}
	}
	return out
}

func collectLegacyIDs(rows []map[string]any) []string {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		id := legacyRecordID(Row(row))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
