package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/clin-sim/clinsim-grader/internal/casefile"
	"github.com/clin-sim/clinsim-grader/internal/grading"
)

type fakeCases struct {
	grading *grading.GradingConfig
	err     error
}

func (f *fakeCases) LoadCase(caseID string) (*casefile.Case, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &casefile.Case{CaseID: caseID}, nil
}

func (f *fakeCases) LoadGrading(string) (*grading.GradingConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.grading, nil
}

type countingEngine struct {
	calls  int
	result grading.GradingResult
}

func (c *countingEngine) Grade(context.Context, grading.GradeInput) grading.GradingResult {
	c.calls++
	return c.result
}

func newTestService(engine Grader) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	cases := &fakeCases{grading: &grading.GradingConfig{}}
	return NewService(store, cases, engine, nil), store
}

func TestSubmitGradesOnce(t *testing.T) {
	ctx := context.Background()
	engine := &countingEngine{result: grading.GradingResult{Score: 91, Passed: true, Feedback: "well done"}}
	svc, store := newTestService(engine)

	conv, _ := store.CreateConversation(ctx, "student1", "case1")
	_, _ = store.AppendMessage(ctx, conv.ID, grading.Message{Role: "user", Content: "hello"})

	first, err := svc.Submit(ctx, conv.ID, "student1")
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Score != 91 || !first.Passed {
		t.Fatalf("first result = %+v", first)
	}

	second, err := svc.Submit(ctx, conv.ID, "student1")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Score != 91 || second.Feedback != "well done" {
		t.Fatalf("second result = %+v", second)
	}
	if engine.calls != 1 {
		t.Fatalf("engine called %d times, want exactly 1", engine.calls)
	}
}

func TestSubmitFreezesConversation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(&countingEngine{})

	conv, _ := store.CreateConversation(ctx, "student1", "case1")
	if _, err := svc.Submit(ctx, conv.ID, "student1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := store.AppendMessage(ctx, conv.ID, grading.Message{Role: "user", Content: "late"}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("append after submit: %v", err)
	}
	if _, err := store.SetSupplementalInput(ctx, conv.ID, "hpi", "late"); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("input after submit: %v", err)
	}

	got, err := store.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Status != StatusSubmitted || got.SubmittedAt == nil {
		t.Fatalf("conversation not marked submitted: %+v", got)
	}
}

func TestSubmitOwnership(t *testing.T) {
	ctx := context.Background()
	engine := &countingEngine{}
	svc, store := newTestService(engine)

	conv, _ := store.CreateConversation(ctx, "student1", "case1")

	if _, err := svc.Submit(ctx, conv.ID, "someone_else"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign submit: %v", err)
	}
	if engine.calls != 0 {
		t.Fatalf("engine must not run for a forbidden submit")
	}

	// empty userID bypasses the ownership check (service-to-service calls)
	if _, err := svc.Submit(ctx, conv.ID, ""); err != nil {
		t.Fatalf("unowned submit: %v", err)
	}
}

func TestSubmitUnknownConversation(t *testing.T) {
	svc, _ := newTestService(&countingEngine{})
	if _, err := svc.Submit(context.Background(), "missing", "student1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSubmitCaseLoadFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cases := &fakeCases{err: casefile.ErrNotFound}
	svc := NewService(store, cases, &countingEngine{}, nil)

	conv, _ := store.CreateConversation(ctx, "student1", "ghost_case")
	if _, err := svc.Submit(ctx, conv.ID, "student1"); !errors.Is(err, casefile.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	// a failed submit leaves the conversation open
	got, _ := store.GetConversation(ctx, conv.ID)
	if got.Status != StatusInProgress {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestResultNeverGrades(t *testing.T) {
	ctx := context.Background()
	engine := &countingEngine{result: grading.GradingResult{Score: 80}}
	svc, store := newTestService(engine)

	conv, _ := store.CreateConversation(ctx, "student1", "case1")

	if _, err := svc.Result(ctx, conv.ID, "student1"); !errors.Is(err, ErrNoSubmission) {
		t.Fatalf("result before submit: %v", err)
	}
	if engine.calls != 0 {
		t.Fatalf("Result must never invoke the engine")
	}

	if _, err := svc.Submit(ctx, conv.ID, "student1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := svc.Result(ctx, conv.ID, "student1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Score != 80 {
		t.Fatalf("score = %d", res.Score)
	}
	if engine.calls != 1 {
		t.Fatalf("engine calls = %d", engine.calls)
	}
}
